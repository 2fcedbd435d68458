package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/timetable-ga/internal/models"
)

// SchedulerRunRepository persists GA scheduling run metadata.
type SchedulerRunRepository struct {
	db *sqlx.DB
}

// NewSchedulerRunRepository creates a new scheduler run repository.
func NewSchedulerRunRepository(db *sqlx.DB) *SchedulerRunRepository {
	return &SchedulerRunRepository{db: db}
}

// Create inserts a new run row in the RUNNING state and returns its id.
func (r *SchedulerRunRepository) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scheduler_runs (id, status, generation, best_score, created_at, updated_at)
		 VALUES ($1, $2, 0, 0, $3, $3)`,
		id, models.SchedulerRunStatusRunning, now,
	)
	if err != nil {
		return "", fmt.Errorf("create scheduler run: %w", err)
	}
	return id, nil
}

// UpdateProgress records the generation reached and the best score so far.
func (r *SchedulerRunRepository) UpdateProgress(ctx context.Context, id string, generation int, bestScore float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE scheduler_runs SET generation = $2, best_score = $3, updated_at = $4 WHERE id = $1`,
		id, generation, bestScore, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update scheduler run progress: %w", err)
	}
	return nil
}

// Finish stores the final status and, when provided, the decoded result.
func (r *SchedulerRunRepository) Finish(ctx context.Context, id string, status models.SchedulerRunStatus, bestScore float64, result types.JSONText, runErr *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE scheduler_runs
		 SET status = $2, best_score = $3, result = $4, error = $5, updated_at = $6
		 WHERE id = $1`,
		id, status, bestScore, result, runErr, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("finish scheduler run: %w", err)
	}
	return nil
}

// FindByID loads a run's current status.
func (r *SchedulerRunRepository) FindByID(ctx context.Context, id string) (*models.SchedulerRun, error) {
	var run models.SchedulerRun
	err := r.db.GetContext(ctx, &run,
		`SELECT id, status, generation, best_score, result, error, created_at, updated_at
		 FROM scheduler_runs WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find scheduler run: %w", err)
	}
	return &run, nil
}
