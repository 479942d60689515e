package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/service/bot"
	"github.com/iamasit07/connect4-engine/pkg/uid"
)

// Request asks for the best move in a position. When Difficulty is set its
// preset depth is used and Depth is ignored.
type Request struct {
	Rules      domain.RuleSet
	Grid       [][]domain.Side
	ToMove     domain.Side
	Depth      int
	Difficulty domain.Difficulty
}

type Analysis struct {
	ID          string            `json:"id"`
	Fingerprint string            `json:"fingerprint"`
	Rules       string            `json:"rules"`
	ToMove      domain.Side       `json:"to_move"`
	Depth       int               `json:"depth"`
	Column      int               `json:"column"`
	Score       int               `json:"score"`
	Nodes       int64             `json:"nodes"`
	Columns     []bot.ColumnScore `json:"columns"`
	Win         bool              `json:"win"`
	Loss        bool              `json:"loss"`
	Cached      bool              `json:"cached"`
	CreatedAt   time.Time         `json:"created_at"`
}

type AnalysisRepository interface {
	SaveAnalysis(ctx context.Context, a domain.AnalysisRecord) error
	ListAnalyses(ctx context.Context, limit int) ([]domain.AnalysisRecord, error)
	DeleteAnalysesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cache returns domain.ErrCacheMiss from Get for unknown keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Options struct {
	Presets     bot.Presets
	MaxDepth    int
	Timeout     time.Duration
	CacheTTL    time.Duration
	Parallelism int
}

// Service answers best-move queries. Repository and cache are optional.
type Service struct {
	engine *bot.Engine
	repo   AnalysisRepository
	cache  Cache
	opts   Options
	logger zerolog.Logger
	saves  sync.WaitGroup
}

func NewService(engine *bot.Engine, repo AnalysisRepository, cache Cache, opts Options, logger zerolog.Logger) *Service {
	if opts.Presets == nil {
		opts.Presets = bot.DefaultPresets
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &Service{
		engine: engine,
		repo:   repo,
		cache:  cache,
		opts:   opts,
		logger: logger.With().Str("component", "analysis").Logger(),
	}
}

// Analyze validates the position, serves it from the cache when possible
// and otherwise runs the search under the configured timeout.
func (s *Service) Analyze(ctx context.Context, req Request) (Analysis, error) {
	board, err := NewBoard(req.Rules, req.Grid, req.ToMove)
	if err != nil {
		return Analysis{}, err
	}
	if winner, ok := board.HasWinner(); ok {
		return Analysis{}, fmt.Errorf("%w: %s already has four in a row", domain.ErrGameOver, winner)
	}

	depth, err := s.depthFor(req)
	if err != nil {
		return Analysis{}, err
	}

	fp := board.Fingerprint()
	key := fmt.Sprintf("analysis:%s:%d", fp, depth)
	if cached, ok := s.lookup(ctx, key); ok {
		return cached, nil
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	res, err := s.engine.BestMove(ctx, board, depth)
	if err != nil {
		return Analysis{}, err
	}

	w := s.engine.Weights()
	a := Analysis{
		ID:          uid.GenerateAnalysisID(),
		Fingerprint: fp,
		Rules:       req.Rules.Name,
		ToMove:      board.SideToMove(),
		Depth:       depth,
		Column:      res.Column,
		Score:       res.Score,
		Nodes:       res.Nodes,
		Columns:     res.Columns,
		Win:         res.IsWin(w),
		Loss:        res.IsLoss(w),
		CreatedAt:   time.Now().UTC(),
	}

	s.store(ctx, key, a)
	s.persistAsync(a, board.Ints())
	return a, nil
}

// AnalyzeBatch analyzes independent positions concurrently. Results keep
// the order of reqs. The first failure cancels the rest.
func (s *Service) AnalyzeBatch(ctx context.Context, reqs []Request) ([]Analysis, error) {
	out := make([]Analysis, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Parallelism)

	for i, req := range reqs {
		g.Go(func() error {
			a, err := s.Analyze(ctx, req)
			if err != nil {
				return fmt.Errorf("position %d: %w", i, err)
			}
			out[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// History lists persisted analyses, newest first. Without a repository it
// returns an empty list.
func (s *Service) History(ctx context.Context, limit int) ([]domain.AnalysisRecord, error) {
	if s.repo == nil {
		return []domain.AnalysisRecord{}, nil
	}
	return s.repo.ListAnalyses(ctx, ClampLimit(limit))
}

// Prune deletes persisted analyses older than maxAge.
func (s *Service) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	if s.repo == nil {
		return 0, nil
	}
	return s.repo.DeleteAnalysesBefore(ctx, time.Now().Add(-maxAge))
}

// Wait blocks until pending background saves have finished.
func (s *Service) Wait() {
	s.saves.Wait()
}

func (s *Service) depthFor(req Request) (int, error) {
	depth := req.Depth
	if req.Difficulty != "" {
		d, err := s.opts.Presets.Depth(req.Difficulty)
		if err != nil {
			return 0, err
		}
		depth = d
	}
	if depth < 0 {
		return 0, fmt.Errorf("%w: %d", bot.ErrInvalidDepth, depth)
	}
	if s.opts.MaxDepth > 0 && depth > s.opts.MaxDepth {
		return 0, fmt.Errorf("%w: %d > %d", domain.ErrDepthTooLarge, depth, s.opts.MaxDepth)
	}
	return depth, nil
}

func (s *Service) lookup(ctx context.Context, key string) (Analysis, bool) {
	if s.cache == nil {
		return Analysis{}, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return Analysis{}, false
	}
	var a Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding corrupt cache entry")
		if err := s.cache.Del(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache delete failed")
		}
		return Analysis{}, false
	}
	a.Cached = true
	return a, true
}

func (s *Service) store(ctx context.Context, key string, a Analysis) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(a)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cannot encode analysis for cache")
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.opts.CacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (s *Service) persistAsync(a Analysis, grid [][]int) {
	if s.repo == nil {
		return
	}
	rec := domain.AnalysisRecord{
		ID:          a.ID,
		Fingerprint: a.Fingerprint,
		Rules:       a.Rules,
		Grid:        grid,
		ToMove:      a.ToMove,
		Depth:       a.Depth,
		BestColumn:  a.Column,
		Score:       a.Score,
		Nodes:       a.Nodes,
		CreatedAt:   a.CreatedAt,
	}

	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.repo.SaveAnalysis(ctx, rec); err != nil {
			s.logger.Error().Err(err).Str("analysis_id", rec.ID).Msg("failed to save analysis")
		}
	}()
}

// NewBoard builds a board from a snapshot grid, counting the discs itself.
func NewBoard(rules domain.RuleSet, grid [][]domain.Side, toMove domain.Side) (*domain.Board, error) {
	discs := 0
	for _, row := range grid {
		for _, cell := range row {
			if cell != domain.Empty {
				discs++
			}
		}
	}
	return domain.BoardFromGrid(rules, grid, discs, toMove)
}

// ClampLimit bounds list sizes to 1..100 with 20 as the default.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > 100:
		return 100
	}
	return limit
}
