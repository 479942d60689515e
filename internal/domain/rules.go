package domain

import "fmt"

// TurnPolicy returns the side to move after mover has dropped a disc and
// the board holds discs discs.
type TurnPolicy func(mover Side, discs int) Side

// Alternate passes the turn after every drop.
func Alternate(mover Side, discs int) Side {
	return mover.Opponent()
}

// FourByTwo lets the opening drop pass the turn; after that every side
// drops twice in a row.
func FourByTwo(mover Side, discs int) Side {
	if discs%2 == 1 {
		return mover.Opponent()
	}
	return mover
}

// RuleSet is everything that distinguishes one board variant from another.
type RuleSet struct {
	Name      string
	Height    int
	Width     int
	WinLength int
	Turn      TurnPolicy
}

const (
	RulesStandard  = "standard"
	RulesFourByTwo = "four_by_two"
)

var (
	Standard = RuleSet{
		Name:      RulesStandard,
		Height:    6,
		Width:     7,
		WinLength: 4,
		Turn:      Alternate,
	}

	FourByTwoRules = RuleSet{
		Name:      RulesFourByTwo,
		Height:    6,
		Width:     7,
		WinLength: 4,
		Turn:      FourByTwo,
	}
)

// RulesByName resolves a rule set by its wire name. An empty name means
// standard play.
func RulesByName(name string) (RuleSet, error) {
	switch name {
	case "", RulesStandard:
		return Standard, nil
	case RulesFourByTwo:
		return FourByTwoRules, nil
	}
	return RuleSet{}, fmt.Errorf("%w: %q", ErrInvalidRules, name)
}

func (r RuleSet) Validate() error {
	if r.Height <= 0 || r.Width <= 0 {
		return fmt.Errorf("%w: %dx%d board", ErrInvalidRules, r.Height, r.Width)
	}
	if r.WinLength < 2 || (r.WinLength > r.Height && r.WinLength > r.Width) {
		return fmt.Errorf("%w: win length %d", ErrInvalidRules, r.WinLength)
	}
	if r.Turn == nil {
		return fmt.Errorf("%w: missing turn policy", ErrInvalidRules)
	}
	return nil
}

// Cells is the number of cells on the board.
func (r RuleSet) Cells() int {
	return r.Height * r.Width
}

// ColumnOrder lists every column from the centre outward, right before
// left at equal distance. For a 7-wide board this is 3,4,2,5,1,6,0.
func (r RuleSet) ColumnOrder() []int {
	center := (r.Width - 1) / 2
	order := make([]int, 0, r.Width)
	order = append(order, center)
	for d := 1; len(order) < r.Width; d++ {
		if center+d < r.Width {
			order = append(order, center+d)
		}
		if center-d >= 0 {
			order = append(order, center-d)
		}
	}
	return order
}

// Center is the column tried first by ColumnOrder.
func (r RuleSet) Center() int {
	return (r.Width - 1) / 2
}
