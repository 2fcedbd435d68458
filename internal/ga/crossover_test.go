package ga

import (
	"math/rand"
	"testing"
)

func TestOrderedCrossoverProducesAPermutationPair(t *testing.T) {
	task, _ := buildTask()
	rng := rand.New(rand.NewSource(3))
	a := NewRandomIndividual(task, rng)
	b := NewRandomIndividual(task, rng)

	for i := 0; i < 20; i++ {
		child1, child2 := OrderedCrossover(a, b, rng)
		if !child1.IsPermutation(task) {
			t.Fatalf("iteration %d: first child is not a valid permutation", i)
		}
		if !child2.IsPermutation(task) {
			t.Fatalf("iteration %d: second child is not a valid permutation", i)
		}
	}
}

func assertIsPermutation(t *testing.T, name string, child []int) {
	t.Helper()
	seen := make(map[int]bool)
	for _, v := range child {
		if seen[v] {
			t.Fatalf("%s contains duplicate value %d", name, v)
		}
		seen[v] = true
	}
	for v := 0; v < len(child); v++ {
		if !seen[v] {
			t.Fatalf("%s is missing value %d", name, v)
		}
	}
}

func TestOrderedCrossoverPerm_ChildrenSharePocketFromOppositeParents(t *testing.T) {
	permA := []int{0, 1, 2, 3, 4}
	permB := []int{4, 3, 2, 1, 0}
	n := len(permA)

	// Replay the same (l, r) draw the function itself will make, using an
	// independent rng seeded identically, so we can check both children
	// against the exact pocket the real call used.
	predict := rand.New(rand.NewSource(1))
	l := predict.Intn(n)
	r := predict.Intn(n)
	if l > r {
		l, r = r, l
	}
	r++

	rng := rand.New(rand.NewSource(1))
	child1, child2 := orderedCrossoverPerm(permA, permB, rng)

	assertIsPermutation(t, "child1", child1)
	assertIsPermutation(t, "child2", child2)

	for i := l; i < r; i++ {
		if child1[i] != permA[i] {
			t.Fatalf("child1[%d] = %d, want pocket value %d from parent A", i, child1[i], permA[i])
		}
		if child2[i] != permB[i] {
			t.Fatalf("child2[%d] = %d, want pocket value %d from parent B", i, child2[i], permB[i])
		}
	}
}
