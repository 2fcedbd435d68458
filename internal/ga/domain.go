package ga

// Preferences captures a soft preference for rooms, times and room features.
// Empty sets mean "no preference" for classrooms/times (see counters.go); the
// feature set is always scored as a difference, empty or not.
type Preferences struct {
	Classrooms        map[int]struct{}
	Times             map[int]struct{}
	ClassroomFeatures map[ClassroomFeature]struct{}
}

// Classroom is a place where study-classes can be held.
type Classroom struct {
	ID             int
	Name           string
	Capacity       int
	Parallels      int
	Specialization ClassroomSpecialization
	Features       map[ClassroomFeature]struct{}
	AvailableTimes []int
}

// StudentGroup is a cohort of students attending classes together.
type StudentGroup struct {
	ID             int
	Name           string
	Size           int
	Degree         Degree
	AvailableTimes map[int]struct{}
}

// Course is a subject taught across one or more study-classes.
type Course struct {
	ID   int
	Name string
}

// Teacher leads one or more study-classes.
type Teacher struct {
	ID             int
	Name           string
	Preferences    Preferences
	WindowsAllowed bool
}

// StudyClass is a resolved teacher+groups+course session awaiting a slot.
// FixedTime/FixedClassroomID are both set, or both nil: a pinned placement
// that is never encoded in the genome.
type StudyClass struct {
	CourseID                int
	TeacherID               int
	GroupIDs                []int
	ClassroomSpecialization ClassroomSpecialization
	Preferences             Preferences
	FixedTime               *int
	FixedClassroomID        *int
}

// TaskData is the fully-resolved (already validated) input to NewTask.
type TaskData struct {
	StudyClasses []StudyClass
	Courses      []Course
	Teachers     []Teacher
	StudentGroups []StudentGroup
	Classrooms   []Classroom
}
