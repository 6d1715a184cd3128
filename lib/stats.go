package lib

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RunStats accumulates per-frame results for the end-of-run summary
type RunStats struct {
	steering       []float64
	yellow         []float64
	blue           []float64
	rightOverrides int
	leftOverrides  int
}

// RunSummary describes a finished run
type RunSummary struct {
	Frames         int
	SteeringMean   float64
	SteeringStdDev float64
	YellowMean     float64
	BlueMean       float64
	RightOverrides int // Frames forced to turn by missing right-side cones
	LeftOverrides  int // Frames forced to turn by missing left-side cones
}

// NewRunStats creates an empty accumulator
func NewRunStats() *RunStats {
	return &RunStats{}
}

// Record adds one frame
func (s *RunStats) Record(r FrameResult) {
	s.steering = append(s.steering, r.Command.Steering)
	s.yellow = append(s.yellow, float64(r.Yellow.Confirmed))
	s.blue = append(s.blue, float64(r.Blue.Confirmed))
	switch r.Override {
	case SideRight:
		s.rightOverrides++
	case SideLeft:
		s.leftOverrides++
	}
}

// Summary computes the run summary
func (s *RunStats) Summary() RunSummary {
	sum := RunSummary{
		Frames:         len(s.steering),
		RightOverrides: s.rightOverrides,
		LeftOverrides:  s.leftOverrides,
	}
	if sum.Frames == 0 {
		return sum
	}
	sum.SteeringMean, sum.SteeringStdDev = stat.MeanStdDev(s.steering, nil)
	if math.IsNaN(sum.SteeringStdDev) {
		sum.SteeringStdDev = 0
	}
	sum.YellowMean = stat.Mean(s.yellow, nil)
	sum.BlueMean = stat.Mean(s.blue, nil)
	return sum
}
