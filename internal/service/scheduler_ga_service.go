package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-ga/internal/dto"
	"github.com/noah-isme/timetable-ga/internal/ga"
	"github.com/noah-isme/timetable-ga/internal/models"
	appErrors "github.com/noah-isme/timetable-ga/pkg/errors"
)

type schedulerRunRepository interface {
	Create(ctx context.Context) (string, error)
	UpdateProgress(ctx context.Context, id string, generation int, bestScore float64) error
	Finish(ctx context.Context, id string, status models.SchedulerRunStatus, bestScore float64, result types.JSONText, runErr *string) error
	FindByID(ctx context.Context, id string) (*models.SchedulerRun, error)
}

// SchedulerGAService orchestrates one genetic-algorithm timetabling run: it
// builds the Task Model, drives the population to the requested generation
// count, persists progress snapshots, and records run status in Postgres.
// Cancelling ctx (SIGINT at the process level) stops the run early and the
// best-so-far individual is still returned and persisted.
type SchedulerGAService struct {
	runs      schedulerRunRepository
	snapshots *ga.PopulationStore
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewSchedulerGAService constructs a SchedulerGAService. metrics may be nil;
// a nil *MetricsService is safe to call (see MetricsService.ObserveGARun).
func NewSchedulerGAService(runs schedulerRunRepository, snapshots *ga.PopulationStore, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *SchedulerGAService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SchedulerGAService{runs: runs, snapshots: snapshots, validator: validate, logger: logger, metrics: metrics}
}

// Generate runs a GA scheduling job to completion (or until ctx is
// cancelled) and returns the rendered result alongside the run id it was
// recorded under.
func (s *SchedulerGAService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (string, []dto.GAClassroomPairsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable request")
	}

	task, err := ga.NewTask(req.ToTaskData())
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInfeasible.Code, appErrors.ErrInfeasible.Status, err.Error())
	}

	params := req.ToParams()

	runID, err := s.runs.Create(ctx)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record scheduler run")
	}

	startedAt := time.Now()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	driver, err := ga.NewDriver(task, req.ToWeights(), params, rng, s.logger)
	if err != nil {
		reason := err.Error()
		s.logger.DPanic("ga invariant violated", zap.String("run_id", runID), zap.Error(err))
		_ = s.runs.Finish(ctx, runID, models.SchedulerRunStatusFailed, 0, nil, &reason)
		return "", nil, appErrors.Wrap(err, appErrors.ErrInvariant.Code, appErrors.ErrInvariant.Status, err.Error())
	}

	changeInterval := req.ChangeInterval
	if changeInterval <= 0 {
		changeInterval = 10
	}

	lastGeneration := 0
	best, runErr := driver.Run(ctx, req.Generations, changeInterval, s.snapshotFunc(runID, &lastGeneration))

	pairs := task.Decode(best.Individual)
	rendered := dto.NewGAResultResponse(pairs)

	encoded, encodeErr := json.Marshal(rendered)
	if encodeErr != nil {
		s.logger.Warn("failed to encode scheduler run result", zap.String("run_id", runID), zap.Error(encodeErr))
	}

	status := models.SchedulerRunStatusDone
	var runErrMsg *string
	if runErr != nil {
		if runErr == ga.ErrAborted {
			status = models.SchedulerRunStatusAborted
		} else {
			status = models.SchedulerRunStatusFailed
		}
		msg := runErr.Error()
		runErrMsg = &msg
	}

	if err := s.runs.Finish(context.WithoutCancel(ctx), runID, status, best.Score, types.JSONText(encoded), runErrMsg); err != nil {
		s.logger.Warn("failed to finalize scheduler run", zap.String("run_id", runID), zap.Error(err))
	}

	s.metrics.ObserveGARun(string(status), time.Since(startedAt), lastGeneration, best.Score)

	if runErr != nil && runErr != ga.ErrAborted {
		return runID, rendered, appErrors.Wrap(runErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "scheduler run failed")
	}

	return runID, rendered, nil
}

// Status reports a previously started run's lifecycle state.
func (s *SchedulerGAService) Status(ctx context.Context, runID string) (dto.GARunStatusResponse, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return dto.GARunStatusResponse{}, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "scheduler run not found")
	}
	return dto.GARunStatusResponse{
		RunID:      run.ID,
		Status:     string(run.Status),
		Generation: run.Generation,
		BestScore:  run.BestScore,
	}, nil
}

func (s *SchedulerGAService) snapshotFunc(runID string, lastGeneration *int) ga.SnapshotFunc {
	return func(ctx context.Context, generation int, population []ga.Scored, hallOfFame []ga.Scored) error {
		*lastGeneration = generation
		snap := ga.Snapshot{
			RunID:      runID,
			Generation: generation,
			Population: population,
			HallOfFame: hallOfFame,
			SavedAt:    time.Now().UTC(),
		}
		if err := s.snapshots.Save(ctx, snap); err != nil {
			s.logger.Warn("failed to persist generation snapshot", zap.String("run_id", runID), zap.Error(err))
		}
		best := hallOfFame[0].Score
		if err := s.runs.UpdateProgress(ctx, runID, generation, best); err != nil {
			return fmt.Errorf("update scheduler run progress: %w", err)
		}
		return nil
	}
}
