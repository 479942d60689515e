package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/iamasit07/connect4-engine/internal/domain"
)

type GameRepo struct {
	DB *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{DB: db}
}

// SaveGame stores a finished game. Saving the same game twice overwrites
// the result.
func (r *GameRepo) SaveGame(ctx context.Context, g domain.GameRecord) error {
	boardJSON, err := json.Marshal(g.Board)
	if err != nil {
		return fmt.Errorf("failed to marshal board state: %w", err)
	}

	query := `
	INSERT INTO games (game_id, rules, difficulty, human_side, winner, status, moves, board, created_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (game_id) DO UPDATE SET
		winner = EXCLUDED.winner,
		status = EXCLUDED.status,
		moves = EXCLUDED.moves,
		board = EXCLUDED.board,
		finished_at = EXCLUDED.finished_at;
	`
	_, err = r.DB.ExecContext(ctx, query,
		g.GameID, g.Rules, string(g.Difficulty), int16(g.HumanSide), int16(g.Winner), string(g.Status),
		pq.Array(toInt64s(g.Moves)), boardJSON, g.CreatedAt, g.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert game record: %w", err)
	}
	return nil
}

const gameColumns = `game_id, rules, difficulty, human_side, winner, status, moves, board, created_at, finished_at`

// GetGameByID returns nil without an error when the game does not exist.
func (r *GameRepo) GetGameByID(ctx context.Context, gameID string) (*domain.GameRecord, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE game_id = $1;`

	g, err := scanGame(r.DB.QueryRowContext(ctx, query, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game by ID: %w", err)
	}
	return g, nil
}

// GetGameHistory lists the most recently finished games first.
func (r *GameRepo) GetGameHistory(ctx context.Context, limit int) ([]domain.GameRecord, error) {
	query := `SELECT ` + gameColumns + ` FROM games ORDER BY finished_at DESC LIMIT $1;`

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query game history: %w", err)
	}
	defer rows.Close()

	games := []domain.GameRecord{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (*domain.GameRecord, error) {
	var (
		g                 domain.GameRecord
		difficulty        string
		status            string
		humanSide, winner int16
		moves             pq.Int64Array
		boardJSON         []byte
	)
	err := row.Scan(&g.GameID, &g.Rules, &difficulty, &humanSide, &winner, &status, &moves, &boardJSON, &g.CreatedAt, &g.FinishedAt)
	if err != nil {
		return nil, err
	}

	g.Difficulty = domain.Difficulty(difficulty)
	g.Status = domain.GameStatus(status)
	g.HumanSide = domain.Side(humanSide)
	g.Winner = domain.Side(winner)
	g.Moves = toInts(moves)
	if err := json.Unmarshal(boardJSON, &g.Board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board state: %w", err)
	}
	return &g, nil
}

func toInt64s(v []int) []int64 {
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return out
}

func toInts(v []int64) []int {
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out
}
