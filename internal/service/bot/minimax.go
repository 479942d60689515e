package bot

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/iamasit07/connect4-engine/internal/domain"
)

const (
	inf = math.MaxInt32

	ErrInvalidDepth domain.Error = "search depth must not be negative"
)

// ColumnScore is the value the root search assigned to one column. Only
// the best column's score is exact; the others may be upper bounds.
type ColumnScore struct {
	Column int `json:"column"`
	Score  int `json:"score"`
}

type Result struct {
	Column  int           `json:"column"`
	Score   int           `json:"score"`
	Depth   int           `json:"depth"`
	Nodes   int64         `json:"nodes"`
	Columns []ColumnScore `json:"columns"`
}

// IsWin reports whether the score proves a forced win for the searching side.
func (r Result) IsWin(w Weights) bool {
	return r.Score >= w.Win
}

// IsLoss reports whether the score proves a forced loss.
func (r Result) IsLoss(w Weights) bool {
	return r.Score <= -w.Win
}

// Engine picks moves with depth-limited minimax and alpha-beta pruning.
// It keeps no state between calls, so one Engine may serve concurrent
// searches as long as each works on its own board.
type Engine struct {
	weights Weights
	logger  zerolog.Logger
}

func NewEngine(weights Weights, logger zerolog.Logger) *Engine {
	return &Engine{
		weights: weights,
		logger:  logger.With().Str("component", "bot").Logger(),
	}
}

func (e *Engine) Weights() Weights {
	return e.weights
}

// Search returns the best column for the side to move.
func (e *Engine) Search(board *domain.Board, maxDepth int) (int, error) {
	res, err := e.BestMove(context.Background(), board, maxDepth)
	if err != nil {
		return -1, err
	}
	return res.Column, nil
}

// BestMove searches maxDepth plies ahead for the side to move and returns
// the column with the highest minimax value. Columns are tried centre-out
// and the first column reaching the best value wins ties. board itself is
// never modified. The search stops with ctx.Err() once ctx is done.
func (e *Engine) BestMove(ctx context.Context, board *domain.Board, maxDepth int) (Result, error) {
	if maxDepth < 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidDepth, maxDepth)
	}
	if board.IsFull() || len(board.LegalColumns()) == 0 {
		return Result{}, domain.ErrNoLegalMove
	}

	s := &search{
		ctx:   ctx,
		board: board.Clone(),
		me:    board.SideToMove(),
		order: board.Rules().ColumnOrder(),
		w:     e.weights,
		pow:   e.weights.powers(board.Rules().WinLength),
	}

	// depth 0 still looks one ply ahead, it just scores every child with
	// the heuristic
	childDepth := max(maxDepth-1, 0)
	res := Result{Column: -1, Score: -inf, Depth: maxDepth}
	alpha := -inf

	for _, col := range s.order {
		if s.board.IsColumnFull(col) {
			continue
		}
		move, err := s.board.Drop(col)
		if err != nil {
			return Result{}, err
		}

		if s.board.MakesFour(move) {
			s.nodes++
			s.board.Undo(move)
			score := e.weights.winScore(childDepth)
			res.Columns = append(res.Columns, ColumnScore{Column: col, Score: score})
			if score > res.Score {
				res.Column, res.Score = col, score
			}
			break
		}

		score, err := s.minimax(childDepth, move, alpha, inf)
		s.board.Undo(move)
		if err != nil {
			return Result{}, err
		}

		e.logger.Debug().Int("column", col).Int("score", score).Msg("considering")
		res.Columns = append(res.Columns, ColumnScore{Column: col, Score: score})
		if score > res.Score {
			res.Column, res.Score = col, score
		}
		alpha = max(alpha, res.Score)
	}

	res.Nodes = s.nodes
	e.logger.Debug().
		Int("column", res.Column).
		Int("score", res.Score).
		Int("depth", maxDepth).
		Int64("nodes", res.Nodes).
		Msg("best move")
	return res, nil
}

// search is the state of one BestMove call.
type search struct {
	ctx   context.Context
	board *domain.Board
	me    domain.Side
	order []int
	w     Weights
	pow   []int
	nodes int64
}

// minimax scores the position reached by last with depth plies left to
// explore. Positions where it is me to move maximise, the others minimise.
func (s *search) minimax(depth int, last domain.Move, alpha, beta int) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	s.nodes++

	if s.board.MakesFour(last) {
		if last.Side == s.me {
			return s.w.winScore(depth), nil
		}
		return -s.w.winScore(depth), nil
	}
	if s.board.IsFull() {
		return 0, nil
	}
	if depth == 0 {
		return s.w.evaluate(s.board, s.me, s.pow), nil
	}

	maximizing := s.board.SideToMove() == s.me
	best := inf
	if maximizing {
		best = -inf
	}

	for _, col := range s.order {
		if s.board.IsColumnFull(col) {
			continue
		}
		move, err := s.board.Drop(col)
		if err != nil {
			return 0, err
		}
		value, err := s.minimax(depth-1, move, alpha, beta)
		s.board.Undo(move)
		if err != nil {
			return 0, err
		}

		if maximizing {
			best = max(best, value)
			alpha = max(alpha, best)
		} else {
			best = min(best, value)
			beta = min(beta, best)
		}
		if beta <= alpha {
			break
		}
	}

	return best, nil
}
