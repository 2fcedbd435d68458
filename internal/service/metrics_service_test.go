package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceObserveGARunRecordsOutcome(t *testing.T) {
	m := NewMetricsService()

	assert.NotPanics(t, func() {
		m.ObserveGARun("DONE", 2*time.Second, 42, 17.5)
	})
}

func TestMetricsServiceObserveGARunNilReceiverIsSafe(t *testing.T) {
	var m *MetricsService

	assert.NotPanics(t, func() {
		m.ObserveGARun("FAILED", time.Second, 3, 0)
	})
}
