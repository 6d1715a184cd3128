package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStats_Empty(t *testing.T) {
	assert.Equal(t, RunSummary{}, NewRunStats().Summary())
}

func TestRunStats_Summary(t *testing.T) {
	s := NewRunStats()
	results := []FrameResult{
		{Command: SteeringCommand{Steering: 0.15}, Yellow: ConeObservation{Confirmed: 2}, Blue: ConeObservation{Confirmed: 0}, Override: SideLeft},
		{Command: SteeringCommand{Steering: -0.15}, Yellow: ConeObservation{Confirmed: 0}, Blue: ConeObservation{Confirmed: 4}, Override: SideRight},
		{Command: SteeringCommand{Steering: 0}, Yellow: ConeObservation{Confirmed: 1}, Blue: ConeObservation{Confirmed: 2}},
	}
	for _, r := range results {
		s.Record(r)
	}

	sum := s.Summary()
	assert.Equal(t, 3, sum.Frames)
	assert.InDelta(t, 0, sum.SteeringMean, 1e-12)
	assert.InDelta(t, 0.15, sum.SteeringStdDev, 1e-12)
	assert.InDelta(t, 1, sum.YellowMean, 1e-12)
	assert.InDelta(t, 2, sum.BlueMean, 1e-12)
	assert.Equal(t, 1, sum.RightOverrides)
	assert.Equal(t, 1, sum.LeftOverrides)
}

func TestRunStats_SingleFrameHasZeroSpread(t *testing.T) {
	s := NewRunStats()
	s.Record(FrameResult{Command: SteeringCommand{Steering: 0.045}})
	sum := s.Summary()
	assert.Equal(t, 0.045, sum.SteeringMean)
	assert.Equal(t, 0.0, sum.SteeringStdDev)
}
