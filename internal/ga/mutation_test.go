package ga

import (
	"math/rand"
	"testing"
)

func TestSwapMutateKeepsAPermutation(t *testing.T) {
	task, _ := buildTask()
	rng := rand.New(rand.NewSource(5))
	ind := NewRandomIndividual(task, rng)

	for i := 0; i < 50; i++ {
		SwapMutate(ind, rng)
		if !ind.IsPermutation(task) {
			t.Fatalf("iteration %d: mutated individual is no longer a valid permutation", i)
		}
	}
}

func TestSwapMutateSkipsDegeneratePermutations(t *testing.T) {
	ind := Individual{SpecializationDefault: {0}}
	rng := rand.New(rand.NewSource(1))
	SwapMutate(ind, rng) // must not panic or index out of range on a length-1 perm
	if len(ind[SpecializationDefault]) != 1 {
		t.Fatal("a length-1 permutation must be left untouched")
	}
}
