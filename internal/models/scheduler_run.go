package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SchedulerRunStatus represents lifecycle phases for a GA scheduling run.
type SchedulerRunStatus string

const (
	SchedulerRunStatusRunning  SchedulerRunStatus = "RUNNING"
	SchedulerRunStatusDone     SchedulerRunStatus = "DONE"
	SchedulerRunStatusAborted  SchedulerRunStatus = "ABORTED"
	SchedulerRunStatusFailed   SchedulerRunStatus = "FAILED"
)

// SchedulerRun tracks one GA scheduling run's metadata. The genomes
// themselves live in the gob snapshot file named after ID; this row is only
// for status lookups and the final decoded result.
type SchedulerRun struct {
	ID         string             `db:"id" json:"id"`
	Status     SchedulerRunStatus `db:"status" json:"status"`
	Generation int                `db:"generation" json:"generation"`
	BestScore  float64            `db:"best_score" json:"best_score"`
	Result     types.JSONText     `db:"result" json:"result,omitempty"`
	Error      *string            `db:"error" json:"error,omitempty"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `db:"updated_at" json:"updated_at"`
}
