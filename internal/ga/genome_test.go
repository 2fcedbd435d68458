package ga

import "testing"

func TestIndividualCloneIsIndependent(t *testing.T) {
	ind := Individual{SpecializationDefault: {0, 1, 2}}
	clone := ind.Clone()
	clone[SpecializationDefault][0] = 99

	if ind[SpecializationDefault][0] == 99 {
		t.Fatal("mutating a clone must not affect the original")
	}
}

func TestIsPermutationAcceptsAndRejects(t *testing.T) {
	task, _ := buildTask()
	valid := NewRandomIndividual(task, seededRNG())
	if !valid.IsPermutation(task) {
		t.Fatal("a freshly shuffled identity permutation must be valid")
	}

	broken := valid.Clone()
	for spec, perm := range broken {
		perm[0] = perm[1] // duplicate a value, breaking the permutation
		broken[spec] = perm
		break
	}
	if broken.IsPermutation(task) {
		t.Fatal("a permutation with a duplicated value must be rejected")
	}

	missing := valid.Clone()
	for spec := range missing {
		delete(missing, spec)
		break
	}
	if missing.IsPermutation(task) {
		t.Fatal("an individual missing a required specialization must be rejected")
	}
}
