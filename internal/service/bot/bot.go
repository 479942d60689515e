package bot

import (
	"context"
	"fmt"

	"github.com/iamasit07/connect4-engine/internal/domain"
)

const ErrUnknownDifficulty domain.Error = "unknown difficulty"

// Presets maps a difficulty to a search depth.
type Presets map[domain.Difficulty]int

// DefaultPresets: six plies is the casual opponent, nine plays a strong game.
var DefaultPresets = Presets{
	domain.DifficultyEasy:   6,
	domain.DifficultyMedium: 8,
	domain.DifficultyHard:   9,
}

func (p Presets) Depth(d domain.Difficulty) (int, error) {
	if d == "" {
		d = domain.DifficultyMedium
	}
	depth, ok := p[d]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, d)
	}
	return depth, nil
}

// Validate checks that every difficulty has a depth in 0..maxDepth. A
// maxDepth of zero or less means no upper bound.
func (p Presets) Validate(maxDepth int) error {
	for _, d := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		depth, ok := p[d]
		if !ok {
			return fmt.Errorf("%w: no depth for %q", ErrUnknownDifficulty, d)
		}
		if depth < 0 {
			return fmt.Errorf("%w: %s preset is %d", ErrInvalidDepth, d, depth)
		}
		if maxDepth > 0 && depth > maxDepth {
			return fmt.Errorf("%w: %s preset %d > %d", domain.ErrDepthTooLarge, d, depth, maxDepth)
		}
	}
	return nil
}

// OpeningMove returns the centre column when the side to move has not
// placed a disc yet. The computer always opens in the centre.
func OpeningMove(board *domain.Board) (int, bool) {
	me := board.SideToMove()
	rules := board.Rules()
	for row := 0; row < rules.Height; row++ {
		for col := 0; col < rules.Width; col++ {
			if board.Cell(row, col) == me {
				return -1, false
			}
		}
	}
	center := rules.Center()
	if board.IsColumnFull(center) {
		return -1, false
	}
	return center, true
}

// CalculateBestMove picks the computer's column for the given difficulty.
func (e *Engine) CalculateBestMove(ctx context.Context, board *domain.Board, presets Presets, difficulty domain.Difficulty) (int, error) {
	if col, ok := OpeningMove(board); ok {
		return col, nil
	}

	depth, err := presets.Depth(difficulty)
	if err != nil {
		return -1, err
	}

	res, err := e.BestMove(ctx, board, depth)
	if err != nil {
		return -1, err
	}
	return res.Column, nil
}
