package lib

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateAt(x int) ConeObservation {
	r := ConeRegion{Rect: image.Rect(x, 260, x+20, 270)}
	return ConeObservation{Confirmed: 1, Largest: r, HasCandidate: true, Candidates: []ConeRegion{r}}
}

func TestDirectionClassifier_BlueLeftOfYellowIsClockwise(t *testing.T) {
	c := NewDirectionClassifier(DefaultDirectionConfig())

	for i := 0; i < 10; i++ {
		assert.Equal(t, DirectionUndetermined, c.Direction(), "frame %d", i)
		closed := c.Observe(candidateAt(100), candidateAt(300))
		assert.Equal(t, i == 9, closed, "frame %d", i)
	}

	require.True(t, c.Decided())
	assert.Equal(t, DirectionClockwise, c.Direction())
	assert.Equal(t, VoteTally{Clockwise: 10}, c.Tally())

	for i := 0; i < 20; i++ {
		c.Observe(candidateAt(300), candidateAt(100))
	}
	assert.Equal(t, DirectionClockwise, c.Direction())
}

func TestDirectionClassifier_FrozenAfterWindow(t *testing.T) {
	c := NewDirectionClassifier(DefaultDirectionConfig())

	for i := 0; i < 10; i++ {
		c.Observe(candidateAt(300), candidateAt(100))
	}
	require.Equal(t, DirectionCounterClockwise, c.Direction())
	tally := c.Tally()

	for i := 0; i < 50; i++ {
		assert.False(t, c.Observe(candidateAt(100), candidateAt(300)))
	}
	assert.Equal(t, DirectionCounterClockwise, c.Direction())
	assert.Equal(t, DirectionCounterClockwise, c.Leading())
	assert.Equal(t, tally, c.Tally())
	assert.Equal(t, 10, c.Frames())
}

func TestDirectionClassifier_IneligibleFramesCountTowardWindow(t *testing.T) {
	c := NewDirectionClassifier(DefaultDirectionConfig())

	c.Observe(candidateAt(100), candidateAt(300))
	for i := 0; i < 9; i++ {
		c.Observe(ConeObservation{}, candidateAt(300))
	}

	assert.True(t, c.Decided())
	assert.Equal(t, DirectionClockwise, c.Direction())
	assert.Equal(t, VoteTally{Clockwise: 1}, c.Tally())
}

func TestDirectionClassifier_NoVotes(t *testing.T) {
	tests := []struct {
		name         string
		blue, yellow ConeObservation
	}{
		{"no cones", ConeObservation{}, ConeObservation{}},
		{"only blue", candidateAt(100), ConeObservation{}},
		{"same x", candidateAt(200), candidateAt(200)},
		{"blue at zero", candidateAt(0), candidateAt(300)},
		{"yellow at zero", candidateAt(100), candidateAt(0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewDirectionClassifier(DefaultDirectionConfig())
			for i := 0; i < 10; i++ {
				c.Observe(tc.blue, tc.yellow)
			}
			assert.True(t, c.Decided())
			assert.Equal(t, DirectionUndetermined, c.Direction())
			assert.Equal(t, VoteTally{}, c.Tally())
		})
	}
}

func TestDirectionClassifier_TieKeepsPreviousLeader(t *testing.T) {
	c := NewDirectionClassifier(DefaultDirectionConfig())

	c.Observe(candidateAt(100), candidateAt(300))
	assert.Equal(t, DirectionClockwise, c.Leading())
	c.Observe(candidateAt(300), candidateAt(100))
	assert.Equal(t, DirectionClockwise, c.Leading(), "tie leaves the running decision alone")
	c.Observe(candidateAt(300), candidateAt(100))
	assert.Equal(t, DirectionCounterClockwise, c.Leading(), "running decision may flip inside the window")

	for i := 0; i < 7; i++ {
		c.Observe(ConeObservation{}, ConeObservation{})
	}
	assert.Equal(t, DirectionCounterClockwise, c.Direction())
}

func TestDirectionClassifier_EvenTieNeverDecided(t *testing.T) {
	c := NewDirectionClassifier(DirectionConfig{WindowFrames: 2})
	c.Observe(candidateAt(300), candidateAt(100))
	c.Observe(candidateAt(100), candidateAt(300))

	// The first frame led counter-clockwise; the tie on the second keeps it.
	assert.Equal(t, DirectionCounterClockwise, c.Direction())

	c = NewDirectionClassifier(DirectionConfig{WindowFrames: 2})
	c.Observe(candidateAt(200), candidateAt(200))
	c.Observe(ConeObservation{}, ConeObservation{})
	assert.Equal(t, DirectionUndetermined, c.Direction())
}

func TestTrackDirection_String(t *testing.T) {
	assert.Equal(t, "UNDETERMINED", DirectionUndetermined.String())
	assert.Equal(t, "CLOCKWISE", DirectionClockwise.String())
	assert.Equal(t, "COUNTER-CLOCKWISE", DirectionCounterClockwise.String())
	assert.Equal(t, "TrackDirection(9)", TrackDirection(9).String())
}
