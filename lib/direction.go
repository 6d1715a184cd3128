package lib

import "fmt"

// TrackDirection is the rotational sense of the track relative to the vehicle.
type TrackDirection int

const (
	DirectionUndetermined TrackDirection = iota
	DirectionClockwise
	DirectionCounterClockwise
)

func (d TrackDirection) String() string {
	switch d {
	case DirectionUndetermined:
		return "UNDETERMINED"
	case DirectionClockwise:
		return "CLOCKWISE"
	case DirectionCounterClockwise:
		return "COUNTER-CLOCKWISE"
	default:
		return fmt.Sprintf("TrackDirection(%d)", int(d))
	}
}

// VoteTally counts direction votes cast during the observation window
type VoteTally struct {
	Clockwise        int
	CounterClockwise int
}

// Leader returns the direction with more votes, or DirectionUndetermined on a tie.
func (t VoteTally) Leader() TrackDirection {
	switch {
	case t.Clockwise > t.CounterClockwise:
		return DirectionClockwise
	case t.CounterClockwise > t.Clockwise:
		return DirectionCounterClockwise
	default:
		return DirectionUndetermined
	}
}

// DirectionClassifier infers the track direction from the first frames of a
// run by comparing where the largest blue and yellow cones sit. Once the
// observation window closes the decision never changes.
type DirectionClassifier struct {
	window  int
	frames  int
	tally   VoteTally
	leading TrackDirection
}

// NewDirectionClassifier creates a classifier with an open observation window
func NewDirectionClassifier(config DirectionConfig) *DirectionClassifier {
	return &DirectionClassifier{window: config.WindowFrames}
}

// Observe feeds one frame's observations. It returns true if the frame
// closed the observation window.
func (c *DirectionClassifier) Observe(blue, yellow ConeObservation) bool {
	if c.Decided() {
		return false
	}

	if eligible(blue) && eligible(yellow) {
		switch bx, yx := blue.Largest.X(), yellow.Largest.X(); {
		case bx < yx:
			c.tally.Clockwise++
		case bx > yx:
			c.tally.CounterClockwise++
		}
		if leader := c.tally.Leader(); leader != DirectionUndetermined {
			c.leading = leader
		}
	}

	c.frames++
	return c.Decided()
}

// eligible reports whether the color has a candidate with a non-zero position
func eligible(obs ConeObservation) bool {
	return obs.HasCandidate && obs.Largest.X() != 0
}

// Decided reports whether the observation window has closed
func (c *DirectionClassifier) Decided() bool {
	return c.frames >= c.window
}

// Direction returns the frozen decision. It is DirectionUndetermined while
// the window is open, and stays so for the whole run if no direction ever led.
func (c *DirectionClassifier) Direction() TrackDirection {
	if !c.Decided() {
		return DirectionUndetermined
	}
	return c.leading
}

// Leading returns the running decision, which may still flip while the window is open
func (c *DirectionClassifier) Leading() TrackDirection {
	return c.leading
}

// Tally returns the votes cast so far
func (c *DirectionClassifier) Tally() VoteTally {
	return c.tally
}

// Frames returns how many frames counted toward the window
func (c *DirectionClassifier) Frames() int {
	return c.frames
}
