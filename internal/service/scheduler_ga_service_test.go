package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-ga/internal/dto"
	"github.com/noah-isme/timetable-ga/internal/ga"
	"github.com/noah-isme/timetable-ga/internal/models"
	appErrors "github.com/noah-isme/timetable-ga/pkg/errors"
	"github.com/noah-isme/timetable-ga/pkg/storage"
)

type schedulerRunRepoStub struct {
	mu   sync.Mutex
	runs map[string]*models.SchedulerRun
	next int
}

func newSchedulerRunRepoStub() *schedulerRunRepoStub {
	return &schedulerRunRepoStub{runs: make(map[string]*models.SchedulerRun)}
}

func (s *schedulerRunRepoStub) Create(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := fmt.Sprintf("run-%d", s.next)
	s.runs[id] = &models.SchedulerRun{ID: id, Status: models.SchedulerRunStatusRunning}
	return id, nil
}

func (s *schedulerRunRepoStub) UpdateProgress(ctx context.Context, id string, generation int, bestScore float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("run %s not found", id)
	}
	run.Generation = generation
	run.BestScore = bestScore
	return nil
}

func (s *schedulerRunRepoStub) Finish(ctx context.Context, id string, status models.SchedulerRunStatus, bestScore float64, result types.JSONText, runErr *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("run %s not found", id)
	}
	run.Status = status
	run.BestScore = bestScore
	run.Result = result
	run.Error = runErr
	return nil
}

func (s *schedulerRunRepoStub) FindByID(ctx context.Context, id string) (*models.SchedulerRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return run, nil
}

func newSchedulerGAServiceFixture(t *testing.T) (*SchedulerGAService, *schedulerRunRepoStub) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	snapshots := ga.NewPopulationStore(files, nil)
	runs := newSchedulerRunRepoStub()
	return NewSchedulerGAService(runs, snapshots, validator.New(), zap.NewNop(), nil), runs
}

// a small but non-trivial task: one movable class, one room, fast enough to
// drive to completion in a handful of generations within a test's budget.
func tinyTimetableRequest() dto.GenerateTimetableRequest {
	return dto.GenerateTimetableRequest{
		Data: dto.GATaskDataRequest{
			Courses:       []dto.GACourseRequest{{ID: 1, Name: "Algorithms"}},
			Teachers:      []dto.GATeacherRequest{{ID: 1, Name: "Ada", WindowsAllowed: true}},
			StudentGroups: []dto.GAStudentGroupRequest{{ID: 1, Name: "CS-1", Size: 20, Degree: "BACHELOR"}},
			Classrooms: []dto.GAClassroomRequest{
				{ID: 1, Name: "Room A", Capacity: 30, Parallels: 1, Specialization: "DEFAULT", AvailableTimes: []int{0, 1, 2, 3}},
			},
			StudyClasses: []dto.GAStudyClassRequest{
				{CourseID: 1, TeacherID: 1, GroupsIDs: []int{1}, ClassroomSpecialization: "DEFAULT"},
			},
		},
		Weights: dto.GAWeightsRequest{GWindow: 1, CStandardOverflow: 1},
		Params: dto.GAParamsRequest{
			PopulationSize: 6,
			PMutation:      0.2,
			PCrossover:     0.7,
			TourSize:       2,
			HallOfFameSize: 1,
		},
		Generations:    3,
		ChangeInterval: 1,
	}
}

func TestSchedulerGAServiceGenerateRecordsADoneRun(t *testing.T) {
	svc, runs := newSchedulerGAServiceFixture(t)

	runID, result, err := svc.Generate(context.Background(), tinyTimetableRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	assert.Len(t, result, 1)

	run, err := runs.FindByID(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, models.SchedulerRunStatusDone, run.Status)
}

func TestSchedulerGAServiceGenerateRejectsInvalidRequest(t *testing.T) {
	svc, _ := newSchedulerGAServiceFixture(t)

	req := tinyTimetableRequest()
	req.Generations = 0 // required,min=1

	_, _, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSchedulerGAServiceGenerateRejectsInfeasibleTask(t *testing.T) {
	svc, _ := newSchedulerGAServiceFixture(t)

	req := tinyTimetableRequest()
	// Two classes competing for the room's single slot: unsatisfiable.
	req.Data.StudyClasses = append(req.Data.StudyClasses, dto.GAStudyClassRequest{
		CourseID: 1, TeacherID: 1, GroupsIDs: []int{1}, ClassroomSpecialization: "DEFAULT",
	})
	req.Data.Classrooms[0].AvailableTimes = []int{0}
	req.Data.Classrooms[0].Parallels = 1

	_, _, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInfeasible.Code, appErr.Code)
}

func TestSchedulerGAServiceStatusReportsNotFound(t *testing.T) {
	svc, _ := newSchedulerGAServiceFixture(t)

	_, err := svc.Status(context.Background(), "does-not-exist")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSchedulerGAServiceStatusReflectsProgress(t *testing.T) {
	svc, _ := newSchedulerGAServiceFixture(t)

	runID, _, err := svc.Generate(context.Background(), tinyTimetableRequest())
	require.NoError(t, err)

	status, err := svc.Status(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, runID, status.RunID)
	assert.Equal(t, string(models.SchedulerRunStatusDone), status.Status)
}
