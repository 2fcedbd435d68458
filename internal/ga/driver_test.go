package ga

import (
	"context"
	"math/rand"
	"testing"

	"go.uber.org/zap"
)

func smallDriver(t *testing.T, params AlgorithmParams) (*Driver, *Task) {
	t.Helper()
	task, _ := buildTask()
	driver, err := NewDriver(task, DefaultFitnessWeights(), params, rand.New(rand.NewSource(11)), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error building driver: %v", err)
	}
	return driver, task
}

func TestDriverRunImprovesOrMatchesInitialBest(t *testing.T) {
	driver, _ := smallDriver(t, AlgorithmParams{
		PopulationSize: 12, PMutation: 0.2, PCrossover: 0.7, TourSize: 3, HallOfFameSize: 2,
	})

	first, err := driver.Run(context.Background(), 1, 100, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	best, err := driver.Run(context.Background(), 20, 100, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Score > first.Score {
		t.Fatalf("elitism must never let the hall-of-fame best regress: %v then %v", first.Score, best.Score)
	}
}

func TestDriverRunHonoursCancellation(t *testing.T) {
	driver, _ := smallDriver(t, AlgorithmParams{
		PopulationSize: 10, PMutation: 0.2, PCrossover: 0.7, TourSize: 3, HallOfFameSize: 2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	best, err := driver.Run(ctx, 1000, 100, nil)
	if err != ErrAborted {
		t.Fatalf("expected ErrAborted for a pre-cancelled context, got %v", err)
	}
	if best.Individual == nil {
		t.Fatal("an aborted run must still return the best-so-far individual")
	}
}

func TestDriverRunInvokesSnapshotOnChangeInterval(t *testing.T) {
	driver, _ := smallDriver(t, AlgorithmParams{
		PopulationSize: 8, PMutation: 0.2, PCrossover: 0.7, TourSize: 3, HallOfFameSize: 2,
	})

	var calls int
	snapshot := func(ctx context.Context, generation int, population []Scored, hallOfFame []Scored) error {
		calls++
		if len(hallOfFame) == 0 {
			t.Fatal("snapshot must receive a non-empty hall of fame")
		}
		return nil
	}

	if _, err := driver.Run(context.Background(), 6, 2, snapshot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 snapshot calls for 6 generations at interval 2, got %d", calls)
	}
}

func TestDriverSeedResumesFromAPersistedPopulation(t *testing.T) {
	driver, _ := smallDriver(t, AlgorithmParams{
		PopulationSize: 8, PMutation: 0.2, PCrossover: 0.7, TourSize: 3, HallOfFameSize: 2,
	})
	first, err := driver.Run(context.Background(), 5, 100, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resumed, _ := smallDriver(t, AlgorithmParams{
		PopulationSize: 8, PMutation: 0.2, PCrossover: 0.7, TourSize: 3, HallOfFameSize: 2,
	})
	resumed.Seed([]Scored{first}, []Scored{first})

	best, err := resumed.Run(context.Background(), 5, 100, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Score > first.Score {
		t.Fatalf("resuming from a seeded population must never regress below the seed's best: %v then %v", first.Score, best.Score)
	}
}
