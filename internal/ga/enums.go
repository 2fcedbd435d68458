package ga

// ClassroomSpecialization is the room category a study-class requires.
type ClassroomSpecialization string

const (
	SpecializationDefault    ClassroomSpecialization = "DEFAULT"
	SpecializationComputers  ClassroomSpecialization = "COMPUTERS"
	SpecializationSportsroom ClassroomSpecialization = "SPORTSROOM"
)

// ClassroomFeature is an amenity a room may carry and a teacher/class may prefer.
type ClassroomFeature string

const (
	FeatureProjector  ClassroomFeature = "PROJECTOR"
	FeatureChalkDesk  ClassroomFeature = "CHALK_DESK"
	FeatureMarkerDesk ClassroomFeature = "MARKER_DESK"
)

// Degree is a student group's level of study.
type Degree string

const (
	DegreeBachelor Degree = "BACHELOR"
	DegreeMaster   Degree = "MASTER"
)
