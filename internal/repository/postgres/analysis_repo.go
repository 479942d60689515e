package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iamasit07/connect4-engine/internal/domain"
)

type AnalysisRepo struct {
	DB *sql.DB
}

func NewAnalysisRepo(db *sql.DB) *AnalysisRepo {
	return &AnalysisRepo{DB: db}
}

func (r *AnalysisRepo) SaveAnalysis(ctx context.Context, a domain.AnalysisRecord) error {
	gridJSON, err := json.Marshal(a.Grid)
	if err != nil {
		return fmt.Errorf("failed to marshal grid: %w", err)
	}

	query := `
	INSERT INTO analyses (id, fingerprint, rules, grid, to_move, depth, best_column, score, nodes, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO NOTHING;
	`
	_, err = r.DB.ExecContext(ctx, query,
		a.ID, a.Fingerprint, a.Rules, gridJSON, int16(a.ToMove), a.Depth, a.BestColumn, a.Score, a.Nodes, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// ListAnalyses returns the newest analyses first.
func (r *AnalysisRepo) ListAnalyses(ctx context.Context, limit int) ([]domain.AnalysisRecord, error) {
	query := `
	SELECT id, fingerprint, rules, grid, to_move, depth, best_column, score, nodes, created_at
	FROM analyses
	ORDER BY created_at DESC
	LIMIT $1;
	`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	out := []domain.AnalysisRecord{}
	for rows.Next() {
		var (
			a        domain.AnalysisRecord
			gridJSON []byte
			toMove   int16
		)
		if err := rows.Scan(&a.ID, &a.Fingerprint, &a.Rules, &gridJSON, &toMove, &a.Depth, &a.BestColumn, &a.Score, &a.Nodes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		if err := json.Unmarshal(gridJSON, &a.Grid); err != nil {
			return nil, fmt.Errorf("failed to unmarshal grid: %w", err)
		}
		a.ToMove = domain.Side(toMove)
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAnalysesBefore removes analyses created before cutoff and reports
// how many rows went.
func (r *AnalysisRepo) DeleteAnalysesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM analyses WHERE created_at < $1;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old analyses: %w", err)
	}
	return res.RowsAffected()
}
