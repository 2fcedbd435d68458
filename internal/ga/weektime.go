package ga

import (
	"os"
	"strconv"
)

// Domain constants, overridable at process start via environment variables so
// operators can adapt the week shape without a rebuild.
var (
	DaysPerWeek      = envInt("SCHEDULER_GA_DAYS_PER_WEEK", 6)
	ClassesPerDay    = envInt("SCHEDULER_GA_CLASSES_PER_DAY", 7)
	MaxClassesPerDay = envInt("SCHEDULER_GA_MAX_CLASSES_PER_DAY", 4)
)

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// WeekdayDaytime splits a week-time index into (weekday, daytime).
func WeekdayDaytime(weekTime int) (weekday int, daytime int) {
	return weekTime / ClassesPerDay, weekTime % ClassesPerDay
}

// WeekTime combines a weekday and daytime back into a single week-time index.
func WeekTime(weekday, daytime int) int {
	return weekday*ClassesPerDay + daytime
}
