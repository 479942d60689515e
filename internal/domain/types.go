package domain

import "fmt"

// Side identifies who owns a disc. Empty marks an unoccupied cell.
type Side int8

const (
	Empty Side = 0
	SideA Side = 1
	SideB Side = 2
)

// Opponent returns the other playing side. Empty has no opponent.
func (s Side) Opponent() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	}
	return Empty
}

func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	}
	return "."
}

// ParseSide accepts "A"/"B" (any case) or the numeric form "1"/"2".
func ParseSide(v string) (Side, error) {
	switch v {
	case "A", "a", "1":
		return SideA, nil
	case "B", "b", "2":
		return SideB, nil
	}
	return Empty, fmt.Errorf("%w: unknown side %q", ErrInvalidBoard, v)
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	if v := string(text); v == "." || v == "" || v == "0" {
		*s = Empty
		return nil
	}
	side, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// to represent the game status
type GameStatus string

const (
	StatusActive GameStatus = "active"
	StatusWon    GameStatus = "won"
	StatusDraw   GameStatus = "draw"
)

// Difficulty names a search depth preset.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var BotNames = map[Difficulty]string{
	DifficultyEasy:   "Alice",
	DifficultyMedium: "Bob",
	DifficultyHard:   "Charles",
}

func GetBotName(d Difficulty) string {
	if name, ok := BotNames[d]; ok {
		return name
	}
	return "BOT"
}

// basic errors that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidColumn Error = "column out of range"
	ErrColumnFull    Error = "column is full"
	ErrNoLegalMove   Error = "no legal move"
	ErrInvalidBoard  Error = "invalid board"
	ErrInvalidRules  Error = "invalid rule set"
	ErrGameOver      Error = "game is over"
	ErrNotYourTurn   Error = "not your turn"

	ErrGameNotFound  Error = "game not found"
	ErrCacheMiss     Error = "cache miss"
	ErrDepthTooLarge Error = "search depth exceeds the configured maximum"
)
