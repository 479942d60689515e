package domain

// Game is a live position plus its outcome.
type Game struct {
	Board  *Board
	Status GameStatus
	Winner Side
	Moves  []int
}

func NewGame(rules RuleSet, first Side) *Game {
	return &Game{
		Board:  NewBoard(rules, first),
		Status: StatusActive,
		Winner: Empty,
	}
}

func (g *Game) CurrentPlayer() Side {
	return g.Board.SideToMove()
}

func (g *Game) MoveCount() int {
	return len(g.Moves)
}

func (g *Game) MakeMove(player Side, column int) (Move, error) {
	if g.Status != StatusActive {
		return Move{}, ErrGameOver
	}

	if player != g.Board.SideToMove() {
		return Move{}, ErrNotYourTurn
	}

	move, err := g.Board.Drop(column)
	if err != nil {
		return Move{}, err
	}
	g.Moves = append(g.Moves, column)

	if g.Board.MakesFour(move) {
		g.Status = StatusWon
		g.Winner = player
		return move, nil
	}

	if g.Board.IsFull() {
		g.Status = StatusDraw
	}

	return move, nil
}

func (g *Game) IsFinished() bool {
	return g.Status == StatusWon || g.Status == StatusDraw
}

// Undo takes back m, which must be the last move played, and reopens the
// game if m had ended it.
func (g *Game) Undo(m Move) {
	g.Board.Undo(m)
	g.Moves = g.Moves[:len(g.Moves)-1]
	g.Status = StatusActive
	g.Winner = Empty
}
