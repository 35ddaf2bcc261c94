package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// UpsertProject records or refreshes a project row
func (r *Repository) UpsertProject(id, name string, estimate *float64) error {
	stmt, err := r.db.GetPreparedStatement("upsert_project")
	if err != nil {
		return err
	}

	now := time.Now()
	if _, err := stmt.Exec(id, name, estimate, now, now); err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}

	return nil
}

// SaveRun persists an evaluation run
func (r *Repository) SaveRun(run *EvaluationRun) error {
	stmt, err := r.db.GetPreparedStatement("insert_run")
	if err != nil {
		return err
	}

	_, err = stmt.Exec(run.ID, run.ProjectID, run.BidCount, run.WinnerID,
		run.WinnerScore, run.Report, run.RequestHash, run.ClientIP, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save evaluation run: %w", err)
	}

	return nil
}

// GetRun fetches a single evaluation run with its full report
func (r *Repository) GetRun(id string) (*EvaluationRun, error) {
	stmt, err := r.db.GetPreparedStatement("get_run")
	if err != nil {
		return nil, err
	}

	var run EvaluationRun
	var winnerID sql.NullString
	var winnerScore sql.NullFloat64

	err = stmt.QueryRow(id).Scan(&run.ID, &run.ProjectID, &run.BidCount,
		&winnerID, &winnerScore, &run.Report, &run.RequestHash, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation run: %w", err)
	}

	run.WinnerID = winnerID.String
	if winnerScore.Valid {
		run.WinnerScore = &winnerScore.Float64
	}

	return &run, nil
}

// ListRunsByProject returns recent runs for a project, newest first.
// Report bodies are omitted; fetch an individual run for the full report.
func (r *Repository) ListRunsByProject(projectID string, limit int) ([]*EvaluationRun, error) {
	stmt, err := r.db.GetPreparedStatement("list_runs_by_project")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluation runs: %w", err)
	}
	defer rows.Close()

	var runs []*EvaluationRun
	for rows.Next() {
		var run EvaluationRun
		var winnerID sql.NullString
		var winnerScore sql.NullFloat64

		if err := rows.Scan(&run.ID, &run.ProjectID, &run.BidCount,
			&winnerID, &winnerScore, &run.RequestHash, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation run: %w", err)
		}

		run.WinnerID = winnerID.String
		if winnerScore.Valid {
			run.WinnerScore = &winnerScore.Float64
		}
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evaluation runs: %w", err)
	}

	return runs, nil
}

// CountRunsForProjectSince counts runs recorded for a project after the cutoff
func (r *Repository) CountRunsForProjectSince(projectID string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM evaluation_runs
		WHERE project_id = ? AND created_at >= ?
	`, projectID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count evaluation runs: %w", err)
	}

	return count, nil
}

// PruneRunsOlderThan deletes runs past the retention window and returns
// the number removed
func (r *Repository) PruneRunsOlderThan(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)

	result, err := r.db.Exec(`DELETE FROM evaluation_runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune evaluation runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned row count: %w", err)
	}

	return deleted, nil
}
