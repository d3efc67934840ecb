package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/shared"
)

// RunRepository stores the history of reconciliation runs.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run, assigning its ID (when empty) and sequence.
func (r *RunRepository) Create(ctx context.Context, run *models.RunRecord) error {
	if run.PlaylistID == "" {
		return fmt.Errorf("validation failed: run requires a playlist id")
	}
	if run.FinishedAt.Before(run.StartedAt) {
		return fmt.Errorf("validation failed: run finished before it started")
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	run.Sequence = sequence

	query := `
		INSERT INTO runs (id, sequence, playlist_id, playlist_title, total, added, already_present, no_match,
			failed, quota_exhausted, spent, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	s := run.Summary
	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.Sequence,
		run.PlaylistID,
		run.PlaylistTitle,
		s.Total,
		s.Added,
		s.AlreadyPresent,
		s.NoMatchFound,
		s.Failed,
		s.QuotaExhausted,
		s.Spent,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// List returns up to limit runs, most recent first. A non-positive limit returns all runs.
func (r *RunRepository) List(ctx context.Context, limit int) ([]models.RunRecord, error) {
	query := `
		SELECT id, sequence, playlist_id, playlist_title, total, added, already_present, no_match,
			failed, quota_exhausted, spent, started_at, finished_at
		FROM runs
		ORDER BY sequence DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		var run models.RunRecord
		s := &run.Summary
		err := rows.Scan(
			&run.ID,
			&run.Sequence,
			&run.PlaylistID,
			&run.PlaylistTitle,
			&s.Total,
			&s.Added,
			&s.AlreadyPresent,
			&s.NoMatchFound,
			&s.Failed,
			&s.QuotaExhausted,
			&s.Spent,
			&run.StartedAt,
			&run.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.Exhausted = s.QuotaExhausted > 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}
