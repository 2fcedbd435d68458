package ga

import (
	"fmt"
	"sort"
)

// Pair is one scheduled session, ready for external presentation.
type Pair struct {
	Weekday int
	Time    int
	Teacher string
	Course  string
	Groups  []string
}

// ClassroomPairs groups the pairs held in one named room.
type ClassroomPairs struct {
	Classroom string
	Pairs     []Pair
}

// InfeasibleError reports a specialization with more study-classes than
// available slots, or with no matching rooms at all (§7 kind 2).
type InfeasibleError struct {
	Specialization ClassroomSpecialization
	Classes        int
	Slots          int
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("specialization %s needs %d slots but only %d are available",
		e.Specialization, e.Classes, e.Slots)
}

// Task is the immutable, preprocessed description of one scheduling instance.
// It is read-only after construction and safe to share by reference across
// concurrent evaluators.
type Task struct {
	classrooms map[int]Classroom
	teachers   map[int]Teacher
	groups     map[int]StudentGroup
	courses    map[int]Course

	// classes[S] are the non-fixed study-classes requiring specialization S.
	classes map[ClassroomSpecialization][]StudyClass

	// fixed[roomID][weekTime] are the pre-placed study-classes to inject at
	// every evaluation; they are never encoded in a genome.
	fixed map[int]map[int][]StudyClass

	// clByPos[S][pos] / clTimes[S][pos] is the slot table: position pos is
	// the offering (room, time) = (clByPos[S][pos], clTimes[S][pos]).
	clByPos map[ClassroomSpecialization][]int
	clTimes map[ClassroomSpecialization][]int
}

// NewTask builds the Task Model from validated input, deriving the slot table
// by iterating rooms in their given order so that position indices are
// deterministic across runs with identical input.
func NewTask(data TaskData) (*Task, error) {
	t := &Task{
		classrooms: make(map[int]Classroom, len(data.Classrooms)),
		teachers:   make(map[int]Teacher, len(data.Teachers)),
		groups:     make(map[int]StudentGroup, len(data.StudentGroups)),
		courses:    make(map[int]Course, len(data.Courses)),
		classes:    make(map[ClassroomSpecialization][]StudyClass),
		fixed:      make(map[int]map[int][]StudyClass),
		clByPos:    make(map[ClassroomSpecialization][]int),
		clTimes:    make(map[ClassroomSpecialization][]int),
	}

	for _, cl := range data.Classrooms {
		t.classrooms[cl.ID] = cl
	}
	for _, tc := range data.Teachers {
		t.teachers[tc.ID] = tc
	}
	for _, g := range data.StudentGroups {
		t.groups[g.ID] = g
	}
	for _, c := range data.Courses {
		t.courses[c.ID] = c
	}

	for _, sc := range data.StudyClasses {
		if sc.FixedClassroomID != nil && sc.FixedTime != nil {
			room := *sc.FixedClassroomID
			tm := *sc.FixedTime
			if t.fixed[room] == nil {
				t.fixed[room] = make(map[int][]StudyClass)
			}
			t.fixed[room][tm] = append(t.fixed[room][tm], sc)
		} else {
			t.classes[sc.ClassroomSpecialization] = append(t.classes[sc.ClassroomSpecialization], sc)
		}
	}

	for _, cl := range data.Classrooms {
		times := make([]int, 0, len(cl.AvailableTimes)*cl.Parallels)
		for i := 0; i < cl.Parallels; i++ {
			times = append(times, cl.AvailableTimes...)
		}
		for fixedTime, classes := range t.fixed[cl.ID] {
			for range classes {
				idx := indexOf(times, fixedTime)
				if idx < 0 {
					break
				}
				times = append(times[:idx], times[idx+1:]...)
			}
		}
		t.clByPos[cl.Specialization] = append(t.clByPos[cl.Specialization], repeat(cl.ID, len(times))...)
		t.clTimes[cl.Specialization] = append(t.clTimes[cl.Specialization], times...)
	}

	for spec, classes := range t.classes {
		m := len(classes)
		n := len(t.clByPos[spec])
		if m > n {
			return nil, &InfeasibleError{Specialization: spec, Classes: m, Slots: n}
		}
	}

	return t, nil
}

func indexOf(values []int, target int) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Specializations returns the set of specializations present in the slot
// table, in a deterministic (sorted) order.
func (t *Task) Specializations() []ClassroomSpecialization {
	specs := make([]ClassroomSpecialization, 0, len(t.clByPos))
	for spec := range t.clByPos {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i] < specs[j] })
	return specs
}

// NumSlots returns N_S, the slot-table length for a specialization.
func (t *Task) NumSlots(spec ClassroomSpecialization) int {
	return len(t.clByPos[spec])
}

// NumClasses returns M_S, the number of non-fixed study-classes requiring spec.
func (t *Task) NumClasses(spec ClassroomSpecialization) int {
	return len(t.classes[spec])
}

// ClassAt returns the study-class at index classNum within specialization spec.
func (t *Task) ClassAt(spec ClassroomSpecialization, classNum int) StudyClass {
	return t.classes[spec][classNum]
}

// GetSlot resolves a (specialization, position) pair to its (room, week-time)
// offering in O(1).
func (t *Task) GetSlot(spec ClassroomSpecialization, pos int) (Classroom, int) {
	roomID := t.clByPos[spec][pos]
	weekTime := t.clTimes[spec][pos]
	return t.classrooms[roomID], weekTime
}

// Teacher looks up a teacher by id.
func (t *Task) Teacher(id int) Teacher { return t.teachers[id] }

// Group looks up a student group by id.
func (t *Task) Group(id int) StudentGroup { return t.groups[id] }

// Fixed returns the fixed pre-placements, keyed by room id then week-time.
func (t *Task) Fixed() map[int]map[int][]StudyClass { return t.fixed }

// Decode renders a genome plus the fixed placements as a schedule grouped by
// room name, for external presentation.
func (t *Task) Decode(ind Individual) []ClassroomPairs {
	byRoom := make(map[string][]Pair)
	roomOrder := make([]string, 0)

	appendPair := func(roomName string, sc StudyClass, weekTime int) {
		if _, ok := byRoom[roomName]; !ok {
			roomOrder = append(roomOrder, roomName)
		}
		weekday, daytime := WeekdayDaytime(weekTime)
		groups := make([]string, 0, len(sc.GroupIDs))
		for _, gid := range sc.GroupIDs {
			groups = append(groups, t.groups[gid].Name)
		}
		byRoom[roomName] = append(byRoom[roomName], Pair{
			Weekday: weekday,
			Time:    daytime,
			Teacher: t.teachers[sc.TeacherID].Name,
			Course:  t.courses[sc.CourseID].Name,
			Groups:  groups,
		})
	}

	for roomID, times := range t.fixed {
		roomName := t.classrooms[roomID].Name
		for weekTime, classes := range times {
			for _, sc := range classes {
				appendPair(roomName, sc, weekTime)
			}
		}
	}

	for spec, perm := range ind {
		n := t.NumClasses(spec)
		for pos, classNum := range perm {
			if classNum >= n {
				continue
			}
			sc := t.classes[spec][classNum]
			room, weekTime := t.GetSlot(spec, pos)
			appendPair(room.Name, sc, weekTime)
		}
	}

	result := make([]ClassroomPairs, 0, len(roomOrder))
	for _, name := range roomOrder {
		result = append(result, ClassroomPairs{Classroom: name, Pairs: byRoom[name]})
	}
	return result
}
