package ga

import "testing"

// These mirror the concrete scenarios used to pin down the evaluator's
// semantics: each builds the smallest task that exercises one counter in
// isolation and checks the exact expected score.

func TestScenarioTrivialBestScoreIsZero(t *testing.T) {
	data := TaskData{
		Courses:       []Course{{ID: 1, Name: "C"}},
		Teachers:      []Teacher{{ID: 1, Name: "T", WindowsAllowed: true}},
		StudentGroups: []StudentGroup{{ID: 1, Name: "G", Size: 10}},
		Classrooms: []Classroom{
			{ID: 1, Name: "Room", Capacity: 30, Parallels: 1, Specialization: SpecializationDefault, AvailableTimes: []int{0}},
		},
		StudyClasses: []StudyClass{
			{CourseID: 1, TeacherID: 1, GroupIDs: []int{1}, ClassroomSpecialization: SpecializationDefault},
		},
	}
	task, err := NewTask(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ev := NewEvaluator(task, DefaultFitnessWeights())
	ind := Individual{SpecializationDefault: []int{0}} // only one slot, one class: the identity is forced
	if score := ev.Evaluate(ind); score != 0 {
		t.Fatalf("trivial single-class task must score 0, got %v", score)
	}
}

func TestScenarioCapacityOverflowScoresUnavoidablePenalty(t *testing.T) {
	data := TaskData{
		Courses:       []Course{{ID: 1, Name: "C"}},
		Teachers:      []Teacher{{ID: 1, Name: "T", WindowsAllowed: true}},
		StudentGroups: []StudentGroup{{ID: 1, Name: "G", Size: 40}},
		Classrooms: []Classroom{
			{ID: 1, Name: "Room", Capacity: 30, Parallels: 1, Specialization: SpecializationDefault, AvailableTimes: []int{0}},
		},
		StudyClasses: []StudyClass{
			{CourseID: 1, TeacherID: 1, GroupIDs: []int{1}, ClassroomSpecialization: SpecializationDefault},
		},
	}
	task, err := NewTask(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	weights := FitnessWeights{StandardClassroomOverflow: 1}
	ev := NewEvaluator(task, weights)
	ind := Individual{SpecializationDefault: []int{0}}
	if score := ev.Evaluate(ind); score != 10 {
		t.Fatalf("40-student group in a 30-capacity room must score exactly 10, got %v", score)
	}
}

func TestScenarioParallelConflictAvoidedByGoodSpread(t *testing.T) {
	data := TaskData{
		Courses:       []Course{{ID: 1, Name: "C1"}, {ID: 2, Name: "C2"}},
		Teachers:      []Teacher{{ID: 1, Name: "T1", WindowsAllowed: true}, {ID: 2, Name: "T2", WindowsAllowed: true}},
		StudentGroups: []StudentGroup{{ID: 1, Name: "G1", Size: 5}, {ID: 2, Name: "G2", Size: 5}},
		Classrooms: []Classroom{
			{ID: 1, Name: "Room", Capacity: 30, Parallels: 2, Specialization: SpecializationDefault, AvailableTimes: []int{0, 1}},
		},
		StudyClasses: []StudyClass{
			{CourseID: 1, TeacherID: 1, GroupIDs: []int{1, 2}, ClassroomSpecialization: SpecializationDefault},
			{CourseID: 2, TeacherID: 2, GroupIDs: []int{1, 2}, ClassroomSpecialization: SpecializationDefault},
		},
	}
	task, err := NewTask(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	weights := FitnessWeights{GroupParallel: 5}

	// The slot table repeats availableTimes once per parallel, so positions
	// 0,1,2,3 map to times 0,1,0,1. Placing class 0 at position 0 (time 0)
	// and class 1 at position 1 (time 1) spreads them across distinct times;
	// positions 2,3 (padding, values m..N_S-1) are unused.
	spread := NewEvaluator(task, weights)
	good := Individual{SpecializationDefault: []int{0, 1, 2, 3}}
	if score := spread.Evaluate(good); score != 0 {
		t.Fatalf("classes spread across distinct times must score 0, got %v", score)
	}

	// Placing class 0 at position 0 (time 0) and class 1 at position 2 (also
	// time 0, the room's second parallel) collides both shared groups.
	clashing := NewEvaluator(task, weights)
	bad := Individual{SpecializationDefault: []int{0, 3, 1, 2}}
	if score := clashing.Evaluate(bad); score != 10 {
		t.Fatalf("both shared groups colliding at the same time must score exactly 10 (2 groups x weight 5), got %v", score)
	}
}

func TestScenarioWindowGapScoresOneFewerWithTighterPlacement(t *testing.T) {
	data := TaskData{
		Courses:       []Course{{ID: 1, Name: "C1"}, {ID: 2, Name: "C2"}},
		Teachers:      []Teacher{{ID: 1, Name: "T", WindowsAllowed: true}},
		StudentGroups: []StudentGroup{{ID: 1, Name: "G", Size: 5}},
		Classrooms: []Classroom{
			{ID: 1, Name: "Room", Capacity: 30, Parallels: 1, Specialization: SpecializationDefault, AvailableTimes: []int{0, 1, 2}},
		},
		StudyClasses: []StudyClass{
			{CourseID: 1, TeacherID: 1, GroupIDs: []int{1}, ClassroomSpecialization: SpecializationDefault},
			{CourseID: 2, TeacherID: 1, GroupIDs: []int{1}, ClassroomSpecialization: SpecializationDefault},
		},
	}
	task, err := NewTask(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	weights := FitnessWeights{GroupWindow: 1}
	ev := NewEvaluator(task, weights)

	// Positions 0,1,2 map to times 0,1,2. Gapped: classes at times 0 and 2.
	gapped := Individual{SpecializationDefault: []int{0, 2, 1}} // class 0@pos0(t0), class1@pos2(t2), pos1 padding
	if score := ev.Evaluate(gapped); score != 1 {
		t.Fatalf("classes at daytimes 0 and 2 must leave exactly one gap, got %v", score)
	}

	ev2 := NewEvaluator(task, weights)
	tight := Individual{SpecializationDefault: []int{0, 1, 2}} // class0@pos0(t0), class1@pos1(t1), pos2 padding
	if score := ev2.Evaluate(tight); score != 0 {
		t.Fatalf("classes at daytimes 0 and 1 must have no gap, got %v", score)
	}
}

func TestScenarioFixedPlacementSeedsEveryReset(t *testing.T) {
	fixedTime, fixedRoom := 5, 1
	data := TaskData{
		Courses:       []Course{{ID: 1, Name: "Fixed"}, {ID: 2, Name: "Movable"}},
		Teachers:      []Teacher{{ID: 1, Name: "T", WindowsAllowed: true}},
		StudentGroups: []StudentGroup{{ID: 1, Name: "G", Size: 5}},
		Classrooms: []Classroom{
			{ID: 1, Name: "Room", Capacity: 30, Parallels: 1, Specialization: SpecializationDefault, AvailableTimes: []int{4, 5, 6}},
		},
		StudyClasses: []StudyClass{
			{CourseID: 1, TeacherID: 1, GroupIDs: []int{1}, ClassroomSpecialization: SpecializationDefault,
				FixedTime: &fixedTime, FixedClassroomID: &fixedRoom},
			{CourseID: 2, TeacherID: 1, GroupIDs: []int{1}, ClassroomSpecialization: SpecializationDefault},
		},
	}
	task, err := NewTask(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m := task.NumClasses(SpecializationDefault); m != 1 {
		t.Fatalf("the fixed class must not be encoded in the genome, expected 1 movable class, got %d", m)
	}

	weights := FitnessWeights{GroupWindow: 1}
	// The fixed class takes weekTime 5 out of the slot table, leaving times
	// [4, 6]; position 0 puts the one movable class at weekTime 4, right before
	// the fixed class, so there is no gap. Repeated evaluation must count the
	// fixed placement identically every time (it is re-seeded on every
	// Evaluate/Seed call).
	ind := Individual{SpecializationDefault: []int{0}}

	ev := NewEvaluator(task, weights)
	first := ev.Evaluate(ind)
	second := ev.Evaluate(ind)
	if first != second {
		t.Fatalf("the fixed placement's contribution must be identical across repeated evaluations: %v then %v", first, second)
	}
}

func TestScenarioUnavailableGroupTimeCountsOutOfWindowPlacement(t *testing.T) {
	data := TaskData{
		Courses:       []Course{{ID: 1, Name: "C"}},
		Teachers:      []Teacher{{ID: 1, Name: "T", WindowsAllowed: true}},
		StudentGroups: []StudentGroup{{ID: 1, Name: "G", Size: 5, AvailableTimes: map[int]struct{}{0: {}, 1: {}, 2: {}}}},
		Classrooms: []Classroom{
			{ID: 1, Name: "Room", Capacity: 30, Parallels: 1, Specialization: SpecializationDefault, AvailableTimes: []int{3}},
		},
		StudyClasses: []StudyClass{
			{CourseID: 1, TeacherID: 1, GroupIDs: []int{1}, ClassroomSpecialization: SpecializationDefault},
		},
	}
	task, err := NewTask(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	weights := FitnessWeights{UnavailableGroupTime: 1}
	ev := NewEvaluator(task, weights)
	ind := Individual{SpecializationDefault: []int{0}}
	if score := ev.Evaluate(ind); score != 1 {
		t.Fatalf("placing the group's class at time 3 (outside {0,1,2}) must score exactly 1, got %v", score)
	}
}

// TestScenarioSharingHalvesEffectiveFitnessForIdenticalGenomes checks the
// fitness-sharing niche-count formula tournamentSelect applies: two
// identical genomes are at Distance 0, so with sharing_extent=1,
// distance_threshold=1 each inflates the other's niche count to 2, halving
// its effective fitness; a genome with no nearby duplicate keeps niche
// count 1 and its fitness unchanged.
func TestScenarioSharingHalvesEffectiveFitnessForIdenticalGenomes(t *testing.T) {
	task, _ := buildTask()
	shared := NewRandomIndividual(task, seededRNG())
	score := 8.0

	extent, threshold := 1.0, 1.0
	denom := extent * threshold

	nicheCount := func(self Individual, others ...Individual) float64 {
		n := 1.0
		for _, o := range others {
			dist := float64(Distance(task, self, o))
			if share := 1 - dist/denom; share > 0 {
				n += share
			}
		}
		return n
	}

	withDuplicate := nicheCount(shared, shared.Clone())
	if withDuplicate != 2 {
		t.Fatalf("an exact duplicate at distance 0 must double the niche count, got %v", withDuplicate)
	}
	if effective := score / withDuplicate; effective != 4 {
		t.Fatalf("effective fitness with one duplicate must be halved: got %v", effective)
	}

	alone := nicheCount(shared)
	if alone != 1 {
		t.Fatalf("with no contestants to compare against, niche count must stay 1, got %v", alone)
	}
}
