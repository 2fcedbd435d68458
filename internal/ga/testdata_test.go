package ga

import "math/rand"

// buildTask assembles a small, fully deterministic Task: two classrooms (one
// DEFAULT with two parallels, one COMPUTERS), two teachers, two groups and a
// handful of study-classes — small enough to reason about by hand but large
// enough to exercise every counter.
func buildTask() (*Task, TaskData) {
	data := TaskData{
		Courses: []Course{
			{ID: 1, Name: "Algorithms"},
			{ID: 2, Name: "Databases"},
		},
		Teachers: []Teacher{
			{ID: 1, Name: "Ada"},
			{ID: 2, Name: "Grace", WindowsAllowed: true},
		},
		StudentGroups: []StudentGroup{
			{ID: 1, Name: "CS-1", Size: 20, Degree: DegreeBachelor},
			{ID: 2, Name: "CS-2", Size: 15, Degree: DegreeBachelor},
		},
		Classrooms: []Classroom{
			{
				ID: 1, Name: "Room A", Capacity: 30, Parallels: 2,
				Specialization: SpecializationDefault,
				AvailableTimes: []int{0, 1, 2, 3},
			},
			{
				ID: 2, Name: "Lab B", Capacity: 20, Parallels: 1,
				Specialization: SpecializationComputers,
				AvailableTimes: []int{0, 1, 2, 3},
			},
		},
		StudyClasses: []StudyClass{
			{CourseID: 1, TeacherID: 1, GroupIDs: []int{1}, ClassroomSpecialization: SpecializationDefault},
			{CourseID: 2, TeacherID: 2, GroupIDs: []int{2}, ClassroomSpecialization: SpecializationDefault},
			{CourseID: 1, TeacherID: 2, GroupIDs: []int{1, 2}, ClassroomSpecialization: SpecializationComputers},
		},
	}
	task, err := NewTask(data)
	if err != nil {
		panic(err)
	}
	return task, data
}

func seededRNG() *rand.Rand { return rand.New(rand.NewSource(42)) }
