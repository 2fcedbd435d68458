package ga

import "math/rand"

// OrderedCrossover produces a pair of children per specialization by the
// classic ordered-crossover (OX1) scheme: one contiguous "pocket" [l, r) is
// drawn per specialization and shared by both children. child1 copies its
// pocket verbatim from a and fills the remaining positions, in the order
// they appear starting after r (wrapping), with b's values skipping
// anything already placed; child2 is the mirror image, with the pocket
// copied from b and the remainder filled from a.
func OrderedCrossover(a, b Individual, rng *rand.Rand) (Individual, Individual) {
	child1 := make(Individual, len(a))
	child2 := make(Individual, len(a))
	for spec, permA := range a {
		permB := b[spec]
		c1, c2 := orderedCrossoverPerm(permA, permB, rng)
		child1[spec] = c1
		child2[spec] = c2
	}
	return child1, child2
}

func orderedCrossoverPerm(permA, permB []int, rng *rand.Rand) ([]int, []int) {
	n := len(permA)
	if n == 0 {
		return nil, nil
	}

	l := rng.Intn(n)
	r := rng.Intn(n)
	if l > r {
		l, r = r, l
	}
	r++

	child1 := fillOX(permA, permB, l, r)
	child2 := fillOX(permB, permA, l, r)
	return child1, child2
}

// fillOX copies pocketFrom's [l, r) pocket verbatim, then fills the rest in
// fillFrom's order starting at index r (wrapping), skipping anything the
// pocket already placed.
func fillOX(pocketFrom, fillFrom []int, l, r int) []int {
	n := len(pocketFrom)
	child := make([]int, n)
	taken := make([]bool, n)
	for i := l; i < r; i++ {
		child[i] = pocketFrom[i]
		taken[pocketFrom[i]] = true
	}

	pos := r % n
	for k := 0; k < n; k++ {
		v := fillFrom[(r+k)%n]
		if taken[v] {
			continue
		}
		for childHas(l, r, pos) {
			pos = (pos + 1) % n
		}
		child[pos] = v
		taken[v] = true
		pos = (pos + 1) % n
	}
	return child
}

// childHas reports whether index pos falls inside the already-filled pocket
// [l, r), so the fill loop skips over it as it wraps around the genome.
func childHas(l, r, pos int) bool {
	return pos >= l && pos < r
}
