package lib

import (
	"fmt"
	"sync"
	"time"
)

// Side identifies a proximity sensor
type Side int

const (
	SideLeft Side = iota + 1
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// SensorReading is the latest voltage for one side. Valid is false until the
// first reading for that side arrives.
type SensorReading struct {
	Voltage  float64
	Received time.Time
	Valid    bool
}

// ProximitySnapshot holds both sides as read at one instant
type ProximitySnapshot struct {
	Left  SensorReading
	Right SensorReading
}

// SensorState holds the latest proximity readings. Feeds write it from their
// own goroutines and the frame loop reads it once per frame; the lock is held
// only for the single read or write.
type SensorState struct {
	mu    sync.Mutex
	left  SensorReading
	right SensorReading
	now   func() time.Time
}

// NewSensorState creates a state with no readings yet
func NewSensorState() *SensorState {
	return &SensorState{now: time.Now}
}

// Update stores voltage as the latest reading for side. The latest write wins.
func (s *SensorState) Update(side Side, voltage float64) {
	reading := SensorReading{Voltage: voltage, Received: s.now(), Valid: true}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch side {
	case SideLeft:
		s.left = reading
	case SideRight:
		s.right = reading
	}
}

// Reading returns the latest reading for side
func (s *SensorState) Reading(side Side) SensorReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	if side == SideLeft {
		return s.left
	}
	return s.right
}

// Snapshot returns both sides
func (s *SensorState) Snapshot() ProximitySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ProximitySnapshot{Left: s.left, Right: s.right}
}
