package dto

import (
	"github.com/noah-isme/timetable-ga/internal/ga"
)

// GAPreferencesRequest mirrors §6's `preferences` shape: sets of ids and
// feature tags, all optional.
type GAPreferencesRequest struct {
	Classrooms        []int    `json:"classrooms"`
	Times             []int    `json:"times"`
	ClassroomFeatures []string `json:"classroomFeatures"`
}

func (p GAPreferencesRequest) toDomain() ga.Preferences {
	prefs := ga.Preferences{
		Classrooms:        make(map[int]struct{}, len(p.Classrooms)),
		Times:             make(map[int]struct{}, len(p.Times)),
		ClassroomFeatures: make(map[ga.ClassroomFeature]struct{}, len(p.ClassroomFeatures)),
	}
	for _, id := range p.Classrooms {
		prefs.Classrooms[id] = struct{}{}
	}
	for _, t := range p.Times {
		prefs.Times[t] = struct{}{}
	}
	for _, f := range p.ClassroomFeatures {
		prefs.ClassroomFeatures[ga.ClassroomFeature(f)] = struct{}{}
	}
	return prefs
}

// GAClassroomRequest is one `data.classrooms[]` entry.
type GAClassroomRequest struct {
	ID             int      `json:"id" validate:"required"`
	Name           string   `json:"name" validate:"required"`
	Capacity       int      `json:"capacity" validate:"required,min=1"`
	Parallels      int      `json:"parallels" validate:"required,min=1"`
	Specialization string   `json:"specialization" validate:"required,oneof=DEFAULT COMPUTERS SPORTSROOM"`
	Features       []string `json:"features" validate:"dive,oneof=PROJECTOR CHALK_DESK MARKER_DESK"`
	AvailableTimes []int    `json:"availableTimes" validate:"required,min=1,dive,min=0"`
}

// GAStudentGroupRequest is one `data.studentGroups[]` entry.
type GAStudentGroupRequest struct {
	ID             int    `json:"id" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Size           int    `json:"size" validate:"required,min=1"`
	Degree         string `json:"degree" validate:"required,oneof=BACHELOR MASTER"`
	AvailableTimes []int  `json:"availableTimes" validate:"dive,min=0"`
}

// GATeacherRequest is one `data.teachers[]` entry.
type GATeacherRequest struct {
	ID             int                  `json:"id" validate:"required"`
	Name           string               `json:"name" validate:"required"`
	Preferences    GAPreferencesRequest `json:"preferences"`
	WindowsAllowed bool                 `json:"windowsAllowed"`
}

// GACourseRequest is one `data.courses[]` entry.
type GACourseRequest struct {
	ID   int    `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// GAStudyClassRequest is one `data.studyClasses[]` entry. FixedTime and
// FixedClassroomID are both set or both nil — a pinned placement never
// encoded in the genome.
type GAStudyClassRequest struct {
	CourseID                int                  `json:"courseId" validate:"required"`
	TeacherID               int                  `json:"teacherId" validate:"required"`
	GroupsIDs               []int                `json:"groupsIds" validate:"required,min=1"`
	ClassroomSpecialization string               `json:"classroomSpecialization" validate:"required,oneof=DEFAULT COMPUTERS SPORTSROOM"`
	Preferences             GAPreferencesRequest `json:"preferences"`
	FixedTime               *int                 `json:"fixedTime"`
	FixedClassroomID        *int                 `json:"fixedClassroomId"`
}

// GATaskDataRequest is the `data` object of the scheduling request.
type GATaskDataRequest struct {
	StudyClasses  []GAStudyClassRequest   `json:"studyClasses" validate:"required,min=1,dive"`
	Teachers      []GATeacherRequest      `json:"teachers" validate:"required,min=1,dive"`
	StudentGroups []GAStudentGroupRequest `json:"studentGroups" validate:"required,min=1,dive"`
	Classrooms    []GAClassroomRequest    `json:"classrooms" validate:"required,min=1,dive"`
	Courses       []GACourseRequest       `json:"courses" validate:"required,min=1,dive"`
}

// GAWeightsRequest is the 14-key, non-negative fitness-weight vector.
type GAWeightsRequest struct {
	GWindow                 float64 `json:"gWindow" validate:"gte=0"`
	TWindow                 float64 `json:"tWindow" validate:"gte=0"`
	GParallelClass          float64 `json:"gParallelClass" validate:"gte=0"`
	TParallelClass          float64 `json:"tParallelClass" validate:"gte=0"`
	GExcessClass            float64 `json:"gExcessClass" validate:"gte=0"`
	CStandardOverflow       float64 `json:"cStandardOverflow" validate:"gte=0"`
	CSpecialOverflow        float64 `json:"cSpecialOverflow" validate:"gte=0"`
	GUnavailableTime        float64 `json:"gUnavailableTime" validate:"gte=0"`
	TPrefClassroom          float64 `json:"tPrefClassroom" validate:"gte=0"`
	TPrefTime               float64 `json:"tPrefTime" validate:"gte=0"`
	TPrefClassroomFeature   float64 `json:"tPrefClassroomFeature" validate:"gte=0"`
	SCPrefClassroom         float64 `json:"scPrefClassroom" validate:"gte=0"`
	SCPrefTime              float64 `json:"scPrefTime" validate:"gte=0"`
	SCPrefClassroomFeature  float64 `json:"scPrefClassroomFeature" validate:"gte=0"`
}

func (w GAWeightsRequest) toDomain() ga.FitnessWeights {
	return ga.FitnessWeights{
		GroupWindow:                 w.GWindow,
		TeacherWindow:               w.TWindow,
		GroupParallel:               w.GParallelClass,
		TeacherParallel:             w.TParallelClass,
		ExcessClass:                 w.GExcessClass,
		StandardClassroomOverflow:   w.CStandardOverflow,
		SpecialClassroomOverflow:    w.CSpecialOverflow,
		UnavailableGroupTime:        w.GUnavailableTime,
		TeacherPrefClassroom:        w.TPrefClassroom,
		TeacherPrefTime:             w.TPrefTime,
		TeacherPrefClassroomFeature: w.TPrefClassroomFeature,
		SCPrefClassroom:             w.SCPrefClassroom,
		SCPrefTime:                  w.SCPrefTime,
		SCPrefClassroomFeature:      w.SCPrefClassroomFeature,
	}
}

// GAParamsRequest is the `params` object controlling the GA run.
type GAParamsRequest struct {
	PopulationSize    int     `json:"populationSize" validate:"required,min=2"`
	PMadeByAlgorithm  float64 `json:"pMadeByAlgorithm" validate:"gte=0,lte=1"`
	HallOfFameSize    int     `json:"hallOfFameSize" validate:"gte=0"`
	PMutation         float64 `json:"pMutation" validate:"gte=0,lte=1"`
	PCrossover        float64 `json:"pCrossover" validate:"gte=0,lte=1"`
	TourSize          int     `json:"tourSize" validate:"required,min=2"`
	DistanceTrashold  float64 `json:"distanceTrashold" validate:"omitempty,gte=1"`
	SharingExtent     float64 `json:"sharingExtent" validate:"omitempty,gte=1"`
}

func (p GAParamsRequest) toDomain() ga.AlgorithmParams {
	return ga.AlgorithmParams{
		PopulationSize:    p.PopulationSize,
		PMadeByAlgorithm:  p.PMadeByAlgorithm,
		HallOfFameSize:    p.HallOfFameSize,
		PMutation:         p.PMutation,
		PCrossover:        p.PCrossover,
		TourSize:          p.TourSize,
		DistanceThreshold: p.DistanceTrashold,
		SharingExtent:     p.SharingExtent,
	}
}

// GenerateTimetableRequest is the full scheduling-run request body.
type GenerateTimetableRequest struct {
	Data    GATaskDataRequest `json:"data" validate:"required"`
	Weights GAWeightsRequest  `json:"weights" validate:"required"`
	Params  GAParamsRequest   `json:"params" validate:"required"`

	// Generations and ChangeInterval are not part of §6's task description
	// but must be supplied somewhere for the driver's loop bound and
	// snapshot cadence; they travel alongside the task on the wire.
	Generations    int `json:"generations" validate:"required,min=1"`
	ChangeInterval int `json:"changeInterval" validate:"omitempty,min=1"`
}

// ToTaskData converts the wire request into the GA engine's internal types.
func (r GenerateTimetableRequest) ToTaskData() ga.TaskData {
	data := ga.TaskData{
		Courses:       make([]ga.Course, len(r.Data.Courses)),
		Teachers:      make([]ga.Teacher, len(r.Data.Teachers)),
		StudentGroups: make([]ga.StudentGroup, len(r.Data.StudentGroups)),
		Classrooms:    make([]ga.Classroom, len(r.Data.Classrooms)),
		StudyClasses:  make([]ga.StudyClass, len(r.Data.StudyClasses)),
	}

	for i, c := range r.Data.Courses {
		data.Courses[i] = ga.Course{ID: c.ID, Name: c.Name}
	}

	for i, t := range r.Data.Teachers {
		data.Teachers[i] = ga.Teacher{
			ID:             t.ID,
			Name:           t.Name,
			Preferences:    t.Preferences.toDomain(),
			WindowsAllowed: t.WindowsAllowed,
		}
	}

	for i, g := range r.Data.StudentGroups {
		avail := make(map[int]struct{}, len(g.AvailableTimes))
		for _, t := range g.AvailableTimes {
			avail[t] = struct{}{}
		}
		data.StudentGroups[i] = ga.StudentGroup{
			ID:             g.ID,
			Name:           g.Name,
			Size:           g.Size,
			Degree:         ga.Degree(g.Degree),
			AvailableTimes: avail,
		}
	}

	for i, cl := range r.Data.Classrooms {
		features := make(map[ga.ClassroomFeature]struct{}, len(cl.Features))
		for _, f := range cl.Features {
			features[ga.ClassroomFeature(f)] = struct{}{}
		}
		data.Classrooms[i] = ga.Classroom{
			ID:             cl.ID,
			Name:           cl.Name,
			Capacity:       cl.Capacity,
			Parallels:      cl.Parallels,
			Specialization: ga.ClassroomSpecialization(cl.Specialization),
			Features:       features,
			AvailableTimes: cl.AvailableTimes,
		}
	}

	for i, sc := range r.Data.StudyClasses {
		data.StudyClasses[i] = ga.StudyClass{
			CourseID:                sc.CourseID,
			TeacherID:               sc.TeacherID,
			GroupIDs:                sc.GroupsIDs,
			ClassroomSpecialization: ga.ClassroomSpecialization(sc.ClassroomSpecialization),
			Preferences:             sc.Preferences.toDomain(),
			FixedTime:               sc.FixedTime,
			FixedClassroomID:        sc.FixedClassroomID,
		}
	}

	return data
}

// ToWeights converts the wire weights into the GA engine's type.
func (r GenerateTimetableRequest) ToWeights() ga.FitnessWeights { return r.Weights.toDomain() }

// ToParams converts the wire params into the GA engine's type.
func (r GenerateTimetableRequest) ToParams() ga.AlgorithmParams { return r.Params.toDomain() }

// GAPairResponse is one scheduled session in the result listing.
type GAPairResponse struct {
	Weekday int      `json:"weekday"`
	Time    int      `json:"time"`
	Teacher string   `json:"teacher"`
	Course  string   `json:"course"`
	Groups  []string `json:"groups"`
}

// GAClassroomPairsResponse groups a room's scheduled sessions, per §6's
// result shape.
type GAClassroomPairsResponse struct {
	Classroom string           `json:"classroom"`
	Pairs     []GAPairResponse `json:"pairs"`
}

// NewGAResultResponse renders decoded classroom pairs into the wire shape.
func NewGAResultResponse(pairs []ga.ClassroomPairs) []GAClassroomPairsResponse {
	out := make([]GAClassroomPairsResponse, len(pairs))
	for i, cp := range pairs {
		wirePairs := make([]GAPairResponse, len(cp.Pairs))
		for j, p := range cp.Pairs {
			wirePairs[j] = GAPairResponse{
				Weekday: p.Weekday,
				Time:    p.Time,
				Teacher: p.Teacher,
				Course:  p.Course,
				Groups:  p.Groups,
			}
		}
		out[i] = GAClassroomPairsResponse{Classroom: cp.Classroom, Pairs: wirePairs}
	}
	return out
}

// GARunStatusResponse reports a run's lifecycle state.
type GARunStatusResponse struct {
	RunID      string  `json:"runId"`
	Status     string  `json:"status"`
	Generation int     `json:"generation"`
	BestScore  float64 `json:"bestScore"`
}
