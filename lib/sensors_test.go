package lib

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSensorState_StartsUnread(t *testing.T) {
	s := NewSensorState()
	snap := s.Snapshot()
	assert.False(t, snap.Left.Valid)
	assert.False(t, snap.Right.Valid)
}

func TestSensorState_LatestWins(t *testing.T) {
	s := NewSensorState()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Update(SideLeft, 0.02)
	s.Update(SideLeft, 0.004)
	s.Update(SideRight, 0.03)

	left := s.Reading(SideLeft)
	assert.True(t, left.Valid)
	assert.Equal(t, 0.004, left.Voltage)
	assert.Equal(t, now, left.Received)

	snap := s.Snapshot()
	assert.Equal(t, 0.004, snap.Left.Voltage)
	assert.Equal(t, 0.03, snap.Right.Voltage)
}

func TestSensorState_ConcurrentUpdates(t *testing.T) {
	s := NewSensorState()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			side := SideLeft
			if i%2 == 1 {
				side = SideRight
			}
			for j := 0; j < 500; j++ {
				s.Update(side, float64(j))
				_ = s.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, 499.0, snap.Left.Voltage)
	assert.Equal(t, 499.0, snap.Right.Voltage)
}

func TestSide_String(t *testing.T) {
	assert.Equal(t, "left", SideLeft.String())
	assert.Equal(t, "right", SideRight.String())
	assert.Equal(t, "Side(0)", Side(0).String())
}
