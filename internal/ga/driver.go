package ga

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Scored pairs an individual with its fitness, lower-is-better.
type Scored struct {
	Individual Individual
	Score      float64
}

// SnapshotFunc is called after every changeInterval generations so a caller
// can persist progress (see population.go). Returning an error aborts Run.
type SnapshotFunc func(ctx context.Context, generation int, population []Scored, hallOfFame []Scored) error

// Driver owns one GA run's population lifecycle: initialization, selection,
// crossover, mutation and elitism, evaluated with one Evaluator per worker.
type Driver struct {
	task    *Task
	weights FitnessWeights
	params  AlgorithmParams
	logger  *zap.Logger

	rng     *rand.Rand
	workers int

	population []Scored
	hallOfFame []Scored
}

// NewDriver builds a Driver ready to Run. rng must not be nil; callers that
// want reproducible runs should seed it themselves.
func NewDriver(task *Task, weights FitnessWeights, params AlgorithmParams, rng *rand.Rand, logger *zap.Logger) (*Driver, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		task:    task,
		weights: weights,
		params:  params,
		logger:  logger,
		rng:     rng,
		workers: runtime.GOMAXPROCS(0),
	}, nil
}

// Seed installs a starting population in place of one built by CreateIndividual,
// used to resume from a persisted snapshot (see population.go).
func (d *Driver) Seed(population, hallOfFame []Scored) {
	d.population = population
	d.hallOfFame = hallOfFame
}

func (d *Driver) evaluateAll(individuals []Individual) []Scored {
	out := make([]Scored, len(individuals))
	jobs := make(chan int)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		ev := NewEvaluator(d.task, d.weights)
		for i := range jobs {
			out[i] = Scored{Individual: individuals[i], Score: ev.Evaluate(individuals[i])}
		}
	}

	n := d.workers
	if n > len(individuals) {
		n = len(individuals)
	}
	if n < 1 {
		n = 1
	}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go worker()
	}
	for i := range individuals {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}

func sortByScore(pop []Scored) {
	sort.Slice(pop, func(i, j int) bool { return pop[i].Score < pop[j].Score })
}

// updateHallOfFame keeps the params.HallOfFameSize lowest-scoring entries of
// the current hall of fame and pop combined. Entries are not deduplicated: an
// elite that is already in pop can occupy more than one slot.
func (d *Driver) updateHallOfFame(pop []Scored) {
	combined := append(append([]Scored{}, d.hallOfFame...), pop...)
	sortByScore(combined)
	if len(combined) > d.params.HallOfFameSize {
		combined = combined[:d.params.HallOfFameSize]
	}
	d.hallOfFame = combined
}

// tournamentSelect runs one tournament of params.TourSize random contestants
// and returns the winner, applying fitness sharing when enabled: each
// contestant's score is divided by its niche count, 1 plus, for every other
// contestant in the sample, max(0, 1 - distance/(SharingExtent*DistanceThreshold)),
// and the contestant with the lowest quotient wins.
func (d *Driver) tournamentSelect(pool []Scored) Individual {
	contestants := make([]Scored, d.params.TourSize)
	for i := range contestants {
		contestants[i] = pool[d.rng.Intn(len(pool))]
	}

	if !d.params.SharingEnabled() {
		best := contestants[0]
		for _, c := range contestants[1:] {
			if c.Score < best.Score {
				best = c
			}
		}
		return best.Individual
	}

	effective := make([]float64, len(contestants))
	denom := d.params.SharingExtent * d.params.DistanceThreshold
	for i, c := range contestants {
		nicheCount := 1.0
		for j, o := range contestants {
			if i == j {
				continue
			}
			dist := float64(Distance(d.task, c.Individual, o.Individual))
			if share := 1 - dist/denom; share > 0 {
				nicheCount += share
			}
		}
		effective[i] = c.Score / nicheCount
	}

	bestIdx := 0
	for i := range effective {
		if effective[i] < effective[bestIdx] {
			bestIdx = i
		}
	}
	return contestants[bestIdx].Individual
}

// breedPair replaces one pair of parents with the outcome of ordered
// crossover (one shared (l, r) draw producing both children), each then
// independently subject to swap mutation, mirroring the original's
// varAnd-style generational step.
func (d *Driver) breedPair(parentA, parentB Individual) (Individual, Individual) {
	var child1, child2 Individual
	if d.rng.Float64() < d.params.PCrossover {
		child1, child2 = OrderedCrossover(parentA, parentB, d.rng)
	} else {
		child1, child2 = parentA.Clone(), parentB.Clone()
	}
	if d.rng.Float64() < d.params.PMutation {
		SwapMutate(child1, d.rng)
	}
	if d.rng.Float64() < d.params.PMutation {
		SwapMutate(child2, d.rng)
	}
	return child1, child2
}

// breedGeneration selects a pool of PopulationSize parents via tournament
// selection, then crosses over consecutive pairs within that pool (each
// pair replaced by its two children) instead of drawing fresh parents per
// offspring slot.
func (d *Driver) breedGeneration() []Individual {
	pool := make([]Individual, d.params.PopulationSize)
	for i := range pool {
		pool[i] = d.tournamentSelect(d.population)
	}

	offspring := make([]Individual, 0, len(pool))
	for i := 0; i+1 < len(pool); i += 2 {
		child1, child2 := d.breedPair(pool[i], pool[i+1])
		offspring = append(offspring, child1, child2)
	}
	if len(pool)%2 == 1 {
		last := pool[len(pool)-1].Clone()
		if d.rng.Float64() < d.params.PMutation {
			SwapMutate(last, d.rng)
		}
		offspring = append(offspring, last)
	}
	return offspring
}

// ErrAborted is returned by Run when ctx is cancelled mid-run.
var ErrAborted = errors.New("ga: run aborted")

// Run advances the population for exactly `generations` iterations (or until
// ctx is cancelled), invoking snapshot every changeInterval generations when
// snapshot is non-nil. It returns the best individual found.
func (d *Driver) Run(ctx context.Context, generations, changeInterval int, snapshot SnapshotFunc) (Scored, error) {
	if len(d.population) == 0 {
		seed := make([]Individual, d.params.PopulationSize)
		for i := range seed {
			ev := NewEvaluator(d.task, d.weights)
			seed[i] = CreateIndividual(d.task, ev, d.params.PMadeByAlgorithm, d.rng)
		}
		d.population = d.evaluateAll(seed)
	}
	sortByScore(d.population)
	d.updateHallOfFame(d.population)

	for gen := 1; gen <= generations; gen++ {
		select {
		case <-ctx.Done():
			return d.hallOfFame[0], ErrAborted
		default:
		}

		offspring := d.breedGeneration()
		scoredOffspring := d.evaluateAll(offspring)

		combined := append(scoredOffspring, d.hallOfFame...)
		sortByScore(combined)
		d.population = combined[:d.params.PopulationSize]
		d.updateHallOfFame(d.population)

		d.logger.Debug("ga generation complete",
			zap.Int("generation", gen),
			zap.Float64("best_score", d.hallOfFame[0].Score),
		)

		if snapshot != nil && changeInterval > 0 && gen%changeInterval == 0 {
			if err := snapshot(ctx, gen, d.population, d.hallOfFame); err != nil {
				return d.hallOfFame[0], err
			}
		}
	}

	return d.hallOfFame[0], nil
}
