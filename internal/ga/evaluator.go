package ga

// Evaluator computes a genome's fitness by replaying its placements through
// all 14 error counters. A single Evaluator must not be shared across
// goroutines; the Driver gives each worker its own instance via NewEvaluator.
type Evaluator struct {
	task    *Task
	weights FitnessWeights

	counters []Counter
}

// NewEvaluator builds an Evaluator bound to task, resolving every counter's
// lookup closures against task's teacher/group tables once up front.
func NewEvaluator(task *Task, weights FitnessWeights) *Evaluator {
	groupSize := func(id int) int { return task.Group(id).Size }
	teacherWindowsAllowed := func(id int) bool { return task.Teacher(id).WindowsAllowed }
	teacherClassroomPrefs := func(id int) map[int]struct{} { return task.Teacher(id).Preferences.Classrooms }
	teacherTimePrefs := func(id int) map[int]struct{} { return task.Teacher(id).Preferences.Times }
	teacherFeaturePrefs := func(id int) map[ClassroomFeature]struct{} {
		return task.Teacher(id).Preferences.ClassroomFeatures
	}
	groupAvailable := func(groupID, weekTime int) bool {
		avail := task.Group(groupID).AvailableTimes
		if len(avail) == 0 {
			return true
		}
		_, ok := avail[weekTime]
		return ok
	}

	e := &Evaluator{task: task, weights: weights}
	e.counters = []Counter{
		NewGroupWindow(),
		NewTeacherWindow(teacherWindowsAllowed),
		NewGroupParallel(),
		NewTeacherParallel(),
		NewExcessClass(),
		NewStandardClassroomOverflow(groupSize),
		NewSpecialClassroomOverflow(groupSize),
		NewUnavailableGroupTime(groupAvailable),
		NewTeacherPrefClassroom(teacherClassroomPrefs),
		NewTeacherPrefTime(teacherTimePrefs),
		NewTeacherPrefClassroomFeature(teacherFeaturePrefs),
		NewSCPrefClassroom(),
		NewSCPrefTime(),
		NewSCPrefClassroomFeature(),
	}
	return e
}

func (e *Evaluator) reset() {
	for _, c := range e.counters {
		c.Reset()
	}
}

func (e *Evaluator) weightOf(i int) float64 {
	switch i {
	case 0:
		return e.weights.GroupWindow
	case 1:
		return e.weights.TeacherWindow
	case 2:
		return e.weights.GroupParallel
	case 3:
		return e.weights.TeacherParallel
	case 4:
		return e.weights.ExcessClass
	case 5:
		return e.weights.StandardClassroomOverflow
	case 6:
		return e.weights.SpecialClassroomOverflow
	case 7:
		return e.weights.UnavailableGroupTime
	case 8:
		return e.weights.TeacherPrefClassroom
	case 9:
		return e.weights.TeacherPrefTime
	case 10:
		return e.weights.TeacherPrefClassroomFeature
	case 11:
		return e.weights.SCPrefClassroom
	case 12:
		return e.weights.SCPrefTime
	case 13:
		return e.weights.SCPrefClassroomFeature
	}
	return 0
}

func (e *Evaluator) countAll(weekTime int, sc StudyClass, room Classroom) {
	for _, c := range e.counters {
		c.Count(weekTime, sc, room)
	}
}

func (e *Evaluator) score() float64 {
	total := 0.0
	for i, c := range e.counters {
		total += e.weightOf(i) * float64(c.GetCount())
	}
	return total
}

// Evaluate replays every fixed placement and every genome placement through
// the counters and returns the weighted penalty total. Lower is better; zero
// is a fully feasible schedule.
func (e *Evaluator) Evaluate(ind Individual) float64 {
	e.reset()
	e.seedFixed()

	for spec, perm := range ind {
		n := e.task.NumClasses(spec)
		for pos, classNum := range perm {
			if classNum >= n {
				continue
			}
			sc := e.task.ClassAt(spec, classNum)
			room, weekTime := e.task.GetSlot(spec, pos)
			e.countAll(weekTime, sc, room)
		}
	}

	return e.score()
}

func (e *Evaluator) seedFixed() {
	for roomID, times := range e.task.fixed {
		room := e.task.classrooms[roomID]
		for weekTime, classes := range times {
			for _, sc := range classes {
				e.countAll(weekTime, sc, room)
			}
		}
	}
}

// Seed resets the counters and replays every fixed placement, leaving them
// primed for a sequence of Commit/ScoreHypothetical calls. Used by the
// constructive creator to build up a partial schedule incrementally.
func (e *Evaluator) Seed() {
	e.reset()
	e.seedFixed()
}

// Commit folds one placement into the counters' running state.
func (e *Evaluator) Commit(weekTime int, sc StudyClass, room Classroom) {
	e.countAll(weekTime, sc, room)
}

// ScoreHypothetical returns the weighted penalty total the counters would
// report if (weekTime, sc, room) were committed next, without mutating any
// counter — it is the Evaluator's exposed form of each counter's temp_count.
func (e *Evaluator) ScoreHypothetical(weekTime int, sc StudyClass, room Classroom) float64 {
	total := 0.0
	for i, c := range e.counters {
		total += e.weightOf(i) * float64(c.TempCount(weekTime, sc, room))
	}
	return total
}
