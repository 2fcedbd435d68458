package ga

import "math/rand"

// NewRandomIndividual builds a genome by shuffling each specialization's
// identity permutation uniformly at random.
func NewRandomIndividual(task *Task, rng *rand.Rand) Individual {
	ind := make(Individual, len(task.clByPos))
	for _, spec := range task.Specializations() {
		n := task.NumSlots(spec)
		perm := make([]int, n)
		for i := range perm {
			perm[i] = i
		}
		rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		ind[spec] = perm
	}
	return ind
}

// NewConstructiveIndividual builds a genome greedily: classes of each
// specialization are visited in random order and each is committed to
// whichever currently-free position scores lowest, ties broken uniformly at
// random, using ev's incremental Seed/Commit/ScoreHypothetical so every
// decision reflects all placements made so far (including earlier
// specializations, since groups and teachers can span several). Remaining
// free positions are then filled with the unused indices [M_S, N_S), in any
// order, to restore the permutation invariant; those positions read back as
// padding during evaluation.
//
// A position is "free" only while it holds the construction-time sentinel
// N_S, a value no real placement ever takes (real values are always < N_S).
// Earlier revisions tested "value > 0" to decide freeness, which
// misclassified position 0 as free even once it held a real placement
// there; we test the sentinel explicitly instead.
func NewConstructiveIndividual(task *Task, ev *Evaluator, rng *rand.Rand) Individual {
	ind := make(Individual, len(task.clByPos))
	for _, spec := range task.Specializations() {
		n := task.NumSlots(spec)
		working := make([]int, n)
		for i := range working {
			working[i] = n
		}
		ind[spec] = working
	}

	ev.Seed()

	for _, spec := range task.Specializations() {
		m := task.NumClasses(spec)
		n := task.NumSlots(spec)
		working := ind[spec]

		for _, classNum := range rng.Perm(m) {
			sc := task.ClassAt(spec, classNum)
			best := bestFreePositions(ev, task, spec, working, n, sc)
			chosen := best[rng.Intn(len(best))]
			working[chosen] = classNum
			room, weekTime := task.GetSlot(spec, chosen)
			ev.Commit(weekTime, sc, room)
		}

		unused := make([]int, 0, n-m)
		for v := m; v < n; v++ {
			unused = append(unused, v)
		}
		rng.Shuffle(len(unused), func(i, j int) { unused[i], unused[j] = unused[j], unused[i] })
		k := 0
		for pos, v := range working {
			if v == n {
				working[pos] = unused[k]
				k++
			}
		}
	}
	return ind
}

// bestFreePositions scores every free position for sc and returns all
// positions tied for the lowest score.
func bestFreePositions(ev *Evaluator, task *Task, spec ClassroomSpecialization, working []int, n int, sc StudyClass) []int {
	var best []int
	bestScore := 0.0
	for pos, v := range working {
		if v != n {
			continue
		}
		room, weekTime := task.GetSlot(spec, pos)
		score := ev.ScoreHypothetical(weekTime, sc, room)

		switch {
		case len(best) == 0 || score < bestScore:
			best = []int{pos}
			bestScore = score
		case score == bestScore:
			best = append(best, pos)
		}
	}
	return best
}

// CreateIndividual picks the random or constructive strategy per pAlg, the
// probability that a given individual is built by the greedy algorithm
// rather than drawn uniformly at random.
func CreateIndividual(task *Task, ev *Evaluator, pAlg float64, rng *rand.Rand) Individual {
	if rng.Float64() < pAlg {
		return NewConstructiveIndividual(task, ev, rng)
	}
	return NewRandomIndividual(task, rng)
}
