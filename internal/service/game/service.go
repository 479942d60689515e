package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/service/bot"
	"github.com/iamasit07/connect4-engine/pkg/uid"
)

type GameRepository interface {
	SaveGame(ctx context.Context, g domain.GameRecord) error
}

// State is a snapshot of a session safe to hand to transports.
type State struct {
	GameID        string            `json:"game_id"`
	Rules         string            `json:"rules"`
	Difficulty    domain.Difficulty `json:"difficulty"`
	BotName       string            `json:"bot_name"`
	HumanSide     domain.Side       `json:"human_side"`
	ToMove        domain.Side       `json:"to_move"`
	Status        domain.GameStatus `json:"status"`
	Winner        domain.Side       `json:"winner"`
	Board         [][]int           `json:"board"`
	Moves         []int             `json:"moves"`
	ComputerMoves []domain.Move     `json:"computer_moves,omitempty"`
}

type GameSession struct {
	GameID       string
	Game         *domain.Game
	Difficulty   domain.Difficulty
	HumanSide    domain.Side
	CreatedAt    time.Time
	LastActivity time.Time
	FinishedAt   time.Time
	mu           sync.Mutex
}

func (gs *GameSession) computerSide() domain.Side {
	return gs.HumanSide.Opponent()
}

// snapshot must be called with gs.mu held.
func (gs *GameSession) snapshot(computerMoves []domain.Move) State {
	return State{
		GameID:        gs.GameID,
		Rules:         gs.Game.Board.Rules().Name,
		Difficulty:    gs.Difficulty,
		BotName:       domain.GetBotName(gs.Difficulty),
		HumanSide:     gs.HumanSide,
		ToMove:        gs.Game.CurrentPlayer(),
		Status:        gs.Game.Status,
		Winner:        gs.Game.Winner,
		Board:         gs.Game.Board.Ints(),
		Moves:         append([]int{}, gs.Game.Moves...),
		ComputerMoves: computerMoves,
	}
}

// SessionManager manages active human-vs-computer games
type SessionManager struct {
	Session     map[string]*GameSession // gameID → GameSession
	mu          sync.RWMutex
	repo        GameRepository
	engine      *bot.Engine
	presets     bot.Presets
	moveTimeout time.Duration
	logger      zerolog.Logger
	saves       sync.WaitGroup
	now         func() time.Time
}

// NewSessionManager wires the engine used for the computer's replies. repo
// may be nil, in which case finished games are not stored.
func NewSessionManager(engine *bot.Engine, presets bot.Presets, repo GameRepository, moveTimeout time.Duration, logger zerolog.Logger) *SessionManager {
	if presets == nil {
		presets = bot.DefaultPresets
	}
	return &SessionManager{
		Session:     make(map[string]*GameSession),
		repo:        repo,
		engine:      engine,
		presets:     presets,
		moveTimeout: moveTimeout,
		logger:      logger.With().Str("component", "session").Logger(),
		now:         time.Now,
	}
}

// CreateSession starts a game. SideA always moves first; the human plays A
// when humanFirst is set and B otherwise, in which case the computer's
// opening reply is already on the board.
func (sm *SessionManager) CreateSession(ctx context.Context, rules domain.RuleSet, difficulty domain.Difficulty, humanFirst bool) (State, error) {
	if err := rules.Validate(); err != nil {
		return State{}, err
	}
	if difficulty == "" {
		difficulty = domain.DifficultyMedium
	}
	if _, err := sm.presets.Depth(difficulty); err != nil {
		return State{}, err
	}

	human := domain.SideA
	if !humanFirst {
		human = domain.SideB
	}

	now := sm.now()
	gs := &GameSession{
		GameID:       uid.GenerateGameID(),
		Game:         domain.NewGame(rules, domain.SideA),
		Difficulty:   difficulty,
		HumanSide:    human,
		CreatedAt:    now,
		LastActivity: now,
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	replies, err := sm.playComputer(ctx, gs)
	if err != nil {
		return State{}, err
	}

	sm.mu.Lock()
	sm.Session[gs.GameID] = gs
	sm.mu.Unlock()

	sm.logger.Info().
		Str("game_id", gs.GameID).
		Str("rules", rules.Name).
		Str("difficulty", string(difficulty)).
		Stringer("human", human).
		Msg("session created")
	return gs.snapshot(replies), nil
}

func (sm *SessionManager) GetSessionByGameID(gameID string) (*GameSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.Session[gameID]
	return session, exists
}

func (sm *SessionManager) Get(gameID string) (State, error) {
	gs, ok := sm.GetSessionByGameID(gameID)
	if !ok {
		return State{}, domain.ErrGameNotFound
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.snapshot(nil), nil
}

// HandleMove plays the human's column and then every computer move that
// follows until it is the human's turn again or the game ends.
func (sm *SessionManager) HandleMove(ctx context.Context, gameID string, column int) (State, error) {
	gs, ok := sm.GetSessionByGameID(gameID)
	if !ok {
		return State{}, domain.ErrGameNotFound
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	move, err := gs.Game.MakeMove(gs.HumanSide, column)
	if err != nil {
		return State{}, err
	}
	gs.LastActivity = sm.now()

	replies, err := sm.playComputer(ctx, gs)
	if err != nil {
		// take everything back so the human can play again
		for i := len(replies) - 1; i >= 0; i-- {
			gs.Game.Undo(replies[i])
		}
		gs.Game.Undo(move)
		sm.logger.Warn().Err(err).Str("game_id", gs.GameID).Int("column", column).Msg("move rolled back")
		return State{}, err
	}
	return gs.snapshot(replies), nil
}

// playComputer must be called with gs.mu held.
func (sm *SessionManager) playComputer(ctx context.Context, gs *GameSession) ([]domain.Move, error) {
	var replies []domain.Move
	for !gs.Game.IsFinished() && gs.Game.CurrentPlayer() == gs.computerSide() {
		searchCtx := ctx
		var cancel context.CancelFunc = func() {}
		if sm.moveTimeout > 0 {
			searchCtx, cancel = context.WithTimeout(ctx, sm.moveTimeout)
		}
		column, err := sm.engine.CalculateBestMove(searchCtx, gs.Game.Board, sm.presets, gs.Difficulty)
		cancel()
		if err != nil {
			return replies, fmt.Errorf("computer move in game %s: %w", gs.GameID, err)
		}

		move, err := gs.Game.MakeMove(gs.computerSide(), column)
		if err != nil {
			return replies, fmt.Errorf("computer move in game %s: %w", gs.GameID, err)
		}
		replies = append(replies, move)
	}

	if gs.Game.IsFinished() && gs.FinishedAt.IsZero() {
		gs.FinishedAt = sm.now()
		sm.logger.Info().
			Str("game_id", gs.GameID).
			Str("status", string(gs.Game.Status)).
			Stringer("winner", gs.Game.Winner).
			Int("moves", gs.Game.MoveCount()).
			Msg("game finished")
		sm.saveGameAsync(gs.record())
	}
	return replies, nil
}

// record must be called with gs.mu held.
func (gs *GameSession) record() domain.GameRecord {
	return domain.GameRecord{
		GameID:     gs.GameID,
		Rules:      gs.Game.Board.Rules().Name,
		Difficulty: gs.Difficulty,
		HumanSide:  gs.HumanSide,
		Winner:     gs.Game.Winner,
		Status:     gs.Game.Status,
		Moves:      append([]int{}, gs.Game.Moves...),
		Board:      gs.Game.Board.Ints(),
		CreatedAt:  gs.CreatedAt,
		FinishedAt: gs.FinishedAt,
	}
}

// Saves game data to database in background so replies are not delayed
func (sm *SessionManager) saveGameAsync(rec domain.GameRecord) {
	if sm.repo == nil {
		return
	}
	sm.saves.Add(1)
	go func() {
		defer sm.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sm.repo.SaveGame(ctx, rec); err != nil {
			sm.logger.Error().Err(err).Str("game_id", rec.GameID).Msg("error saving game")
			return
		}
		sm.logger.Debug().Str("game_id", rec.GameID).Msg("game saved")
	}()
}

// Wait blocks until pending background saves have finished.
func (sm *SessionManager) Wait() {
	sm.saves.Wait()
}

func (sm *SessionManager) RemoveSession(gameID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.Session[gameID]; !exists {
		return domain.ErrGameNotFound
	}
	delete(sm.Session, gameID)
	sm.logger.Debug().Str("game_id", gameID).Msg("session removed")
	return nil
}

// CleanupOldSessions drops finished games and games without activity for
// longer than idle. It returns how many sessions were removed.
func (sm *SessionManager) CleanupOldSessions(idle time.Duration) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	count := 0
	now := sm.now()

	for gameID, session := range sm.Session {
		session.mu.Lock()
		stale := now.Sub(session.LastActivity) > idle
		if session.Game.IsFinished() {
			stale = now.Sub(session.FinishedAt) > idle
		}
		session.mu.Unlock()

		if stale {
			delete(sm.Session, gameID)
			count++
		}
	}

	if count > 0 {
		sm.logger.Info().Int("removed", count).Msg("memory cleanup removed stale game sessions")
	}
	return count
}

// Summary describes an in-progress game for listings.
type Summary struct {
	GameID     string            `json:"game_id"`
	Rules      string            `json:"rules"`
	Difficulty domain.Difficulty `json:"difficulty"`
	BotName    string            `json:"bot_name"`
	MoveCount  int               `json:"move_count"`
	StartedAt  time.Time         `json:"started_at"`
}

// ActiveGames lists unfinished games, oldest first.
func (sm *SessionManager) ActiveGames() []Summary {
	sm.mu.RLock()
	sessions := make([]*GameSession, 0, len(sm.Session))
	for _, gs := range sm.Session {
		sessions = append(sessions, gs)
	}
	sm.mu.RUnlock()

	out := make([]Summary, 0, len(sessions))
	for _, gs := range sessions {
		gs.mu.Lock()
		if !gs.Game.IsFinished() {
			out = append(out, Summary{
				GameID:     gs.GameID,
				Rules:      gs.Game.Board.Rules().Name,
				Difficulty: gs.Difficulty,
				BotName:    domain.GetBotName(gs.Difficulty),
				MoveCount:  gs.Game.MoveCount(),
				StartedAt:  gs.CreatedAt,
			})
		}
		gs.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].GameID < out[j].GameID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Count returns the number of sessions held in memory.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.Session)
}
