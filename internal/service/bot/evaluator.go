package bot

import (
	"github.com/iamasit07/connect4-engine/internal/domain"
)

// Weights are the tunable scoring constants of the engine.
type Weights struct {
	// Base scales streaks: a streak holding n discs is worth Base^n.
	Base int
	// Win is the value of a completed line, before the depth bonus.
	Win int
	// DepthBonus is added per ply of search depth still left when a win
	// is found, so sooner wins score higher and sooner losses lower.
	DepthBonus int
}

var DefaultWeights = Weights{
	Base:       5,
	Win:        1_000_000,
	DepthBonus: 100,
}

func (w Weights) winScore(depthRemaining int) int {
	return w.Win + depthRemaining*w.DepthBonus
}

// powers returns Base^0 .. Base^n.
func (w Weights) powers(n int) []int {
	pow := make([]int, n+1)
	pow[0] = 1
	for i := 1; i <= n; i++ {
		pow[i] = pow[i-1] * w.Base
	}
	return pow
}

// Evaluate scores board for me with the default weights.
func Evaluate(board *domain.Board, me domain.Side) int {
	return DefaultWeights.Evaluate(board, me)
}

// Evaluate scans every horizontal, vertical and diagonal line and adds up
// the value of each streak: one side's discs together with the empty
// cells around and between them, cut off by the opponent's discs or the
// edge of the board. Empty cells between two opposing streaks count for
// both. A streak whose span is shorter than the win length can never
// become a line and is worth nothing.
func (w Weights) Evaluate(board *domain.Board, me domain.Side) int {
	return w.evaluate(board, me, w.powers(board.Rules().WinLength))
}

func (w Weights) evaluate(board *domain.Board, me domain.Side, pow []int) int {
	rules := board.Rules()
	score := 0

	for row := 0; row < rules.Height; row++ {
		score += scanLine(board, row, 0, 0, 1, me, pow)
		score += scanLine(board, row, 0, 1, 1, me, pow)
		score += scanLine(board, row, 0, -1, 1, me, pow)
	}
	for col := 0; col < rules.Width; col++ {
		score += scanLine(board, 0, col, 1, 0, me, pow)
		if col > 0 {
			score += scanLine(board, 0, col, 1, 1, me, pow)
			score += scanLine(board, rules.Height-1, col, -1, 1, me, pow)
		}
	}

	return score
}

// lineScan accumulates the streak currently being walked.
type lineScan struct {
	side     domain.Side
	discs    int
	span     int // leading empties through the last disc
	trailing int // empties after the last disc
}

func (s *lineScan) value(me domain.Side, winLength int, pow []int) int {
	if s.side == domain.Empty || s.span+s.trailing < winLength {
		return 0
	}
	v := pow[min(s.discs, winLength)]
	if s.side != me {
		return -v
	}
	return v
}

func scanLine(board *domain.Board, row, col, dRow, dCol int, me domain.Side, pow []int) int {
	rules := board.Rules()
	if lineLength(rules, row, col, dRow, dCol) < rules.WinLength {
		return 0
	}

	score := 0
	var s lineScan
	for ; row >= 0 && row < rules.Height && col >= 0 && col < rules.Width; row, col = row+dRow, col+dCol {
		cell := board.Cell(row, col)
		switch cell {
		case domain.Empty:
			s.trailing++
		case s.side:
			s.discs++
			s.span += s.trailing + 1
			s.trailing = 0
		default:
			score += s.value(me, rules.WinLength, pow)
			s = lineScan{side: cell, discs: 1, span: s.trailing + 1}
		}
	}
	return score + s.value(me, rules.WinLength, pow)
}

func lineLength(rules domain.RuleSet, row, col, dRow, dCol int) int {
	n := 0
	for row >= 0 && row < rules.Height && col >= 0 && col < rules.Width {
		n++
		row += dRow
		col += dCol
	}
	return n
}
