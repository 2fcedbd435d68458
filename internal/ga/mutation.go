package ga

import "math/rand"

// SwapMutate mutates ind in place: every gene, independently across every
// specialization's permutation, has a 10/L chance of being swapped with
// another randomly chosen gene in the same permutation, where L is that
// permutation's length.
func SwapMutate(ind Individual, rng *rand.Rand) {
	for _, perm := range ind {
		n := len(perm)
		if n < 2 {
			continue
		}
		pMutate := 10.0 / float64(n)
		for i := range perm {
			if rng.Float64() < pMutate {
				j := rng.Intn(n)
				perm[i], perm[j] = perm[j], perm[i]
			}
		}
	}
}
