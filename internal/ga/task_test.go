package ga

import "testing"

func TestNewTaskBuildsDeterministicSlotTable(t *testing.T) {
	task, _ := buildTask()

	if n := task.NumSlots(SpecializationDefault); n != 8 {
		t.Fatalf("Room A has 4 available times x 2 parallels = 8 slots, got %d", n)
	}
	if n := task.NumSlots(SpecializationComputers); n != 4 {
		t.Fatalf("Lab B has 4 available times x 1 parallel = 4 slots, got %d", n)
	}
	if m := task.NumClasses(SpecializationDefault); m != 2 {
		t.Fatalf("expected 2 non-fixed DEFAULT study-classes, got %d", m)
	}
}

func TestNewTaskRejectsMoreClassesThanSlots(t *testing.T) {
	data := TaskData{
		Courses:       []Course{{ID: 1, Name: "X"}},
		Teachers:      []Teacher{{ID: 1, Name: "T"}},
		StudentGroups: []StudentGroup{{ID: 1, Name: "G", Size: 10}},
		Classrooms: []Classroom{
			{ID: 1, Name: "Only Room", Capacity: 10, Parallels: 1, Specialization: SpecializationDefault, AvailableTimes: []int{0}},
		},
		StudyClasses: []StudyClass{
			{CourseID: 1, TeacherID: 1, GroupIDs: []int{1}, ClassroomSpecialization: SpecializationDefault},
			{CourseID: 1, TeacherID: 1, GroupIDs: []int{1}, ClassroomSpecialization: SpecializationDefault},
		},
	}
	if _, err := NewTask(data); err == nil {
		t.Fatal("two classes needing one slot must be rejected as infeasible")
	} else if _, ok := err.(*InfeasibleError); !ok {
		t.Fatalf("expected *InfeasibleError, got %T", err)
	}
}

func TestNewTaskExcludesFixedTimesFromSlotTable(t *testing.T) {
	fixedTime, fixedRoom := 0, 1
	data := TaskData{
		Courses:       []Course{{ID: 1, Name: "X"}},
		Teachers:      []Teacher{{ID: 1, Name: "T"}},
		StudentGroups: []StudentGroup{{ID: 1, Name: "G", Size: 10}},
		Classrooms: []Classroom{
			{ID: 1, Name: "Room", Capacity: 30, Parallels: 1, Specialization: SpecializationDefault, AvailableTimes: []int{0, 1}},
		},
		StudyClasses: []StudyClass{
			{CourseID: 1, TeacherID: 1, GroupIDs: []int{1}, ClassroomSpecialization: SpecializationDefault,
				FixedTime: &fixedTime, FixedClassroomID: &fixedRoom},
		},
	}
	task, err := NewTask(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := task.NumSlots(SpecializationDefault); n != 1 {
		t.Fatalf("fixed time 0 must be removed from the slot table, leaving 1, got %d", n)
	}
	if m := task.NumClasses(SpecializationDefault); m != 0 {
		t.Fatalf("a fixed study-class is never encoded in the genome, got %d non-fixed classes", m)
	}
}

func TestDecodeSkipsPadding(t *testing.T) {
	task, _ := buildTask()
	ind := NewRandomIndividual(task, seededRNG())

	decoded := task.Decode(ind)
	total := 0
	for _, cp := range decoded {
		total += len(cp.Pairs)
	}
	if total != task.NumClasses(SpecializationDefault)+task.NumClasses(SpecializationComputers) {
		t.Fatalf("decoded pair count must equal the number of real (non-padding) classes, got %d", total)
	}
}

func TestDecodeIsDeterministicForTheSameIndividual(t *testing.T) {
	task, _ := buildTask()
	ind := NewRandomIndividual(task, seededRNG())

	countsByRoom := func(pairs []ClassroomPairs) map[string]int {
		out := make(map[string]int, len(pairs))
		for _, cp := range pairs {
			out[cp.Classroom] = len(cp.Pairs)
		}
		return out
	}

	first := countsByRoom(task.Decode(ind))
	second := countsByRoom(task.Decode(ind))
	if len(first) != len(second) {
		t.Fatalf("decoding twice must yield the same set of rooms")
	}
	for room, n := range first {
		if second[room] != n {
			t.Fatalf("decode must be a pure function of (task, individual): room %s had %d then %d", room, n, second[room])
		}
	}
}
