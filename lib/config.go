package lib

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

// Detection and steering constants. DefaultConfig is built from these.
const (
	CandidateAreaThreshold = 80  // Regions above this area are direction candidates
	ConfirmedAreaThreshold = 120 // Regions above this area count as confirmed cones

	DirectionWindowFrames = 10 // Frames observed before the track direction freezes

	ProximityNearThreshold = 0.007 // Voltage below this means an obstacle is close
	ProximityIncrement     = 0.045 // Steering nudge per close obstacle
	HardTurnSteering       = 0.15  // Magnitude of the zero-cone override

	LeftSenderStamp  uint32 = 1
	RightSenderStamp uint32 = 3

	DefaultGroupTag = "Group_02"
)

// HSVRange is an inclusive OpenCV HSV range (H 0-180, S and V 0-255).
type HSVRange struct {
	Lower [3]float64 `json:"lower"`
	Upper [3]float64 `json:"upper"`
}

// Scalars returns the bounds in the form gocv.InRangeWithScalar expects.
func (r HSVRange) Scalars() (gocv.Scalar, gocv.Scalar) {
	return gocv.NewScalar(r.Lower[0], r.Lower[1], r.Lower[2], 0),
		gocv.NewScalar(r.Upper[0], r.Upper[1], r.Upper[2], 0)
}

func (r HSVRange) validate() error {
	limits := [3]float64{180, 255, 255}
	for i, name := range []string{"hue", "saturation", "value"} {
		if r.Lower[i] < 0 || r.Upper[i] > limits[i] {
			return fmt.Errorf("%s bounds [%v, %v] outside [0, %v]", name, r.Lower[i], r.Upper[i], limits[i])
		}
		if r.Lower[i] > r.Upper[i] {
			return fmt.Errorf("%s lower bound %v above upper bound %v", name, r.Lower[i], r.Upper[i])
		}
	}
	return nil
}

// Box is a rectangle given by inclusive corner points.
type Box struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// Rect converts the inclusive corners to a half-open image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X0, b.Y0, b.X1+1, b.Y1+1)
}

// SegmenterConfig holds the regions blacked out before color analysis and
// the HSV ranges for each cone color. A color's mask is the union of its ranges.
type SegmenterConfig struct {
	Blackout []Box      `json:"blackout"`
	Yellow   []HSVRange `json:"yellow"`
	Blue     []HSVRange `json:"blue"`
}

// DefaultSegmenterConfig returns the ranges tuned for the track's cones
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		Blackout: []Box{
			{X0: 150, Y0: 385, X1: 500, Y1: 500}, // Vehicle body
			{X0: 0, Y0: 0, X1: 650, Y1: 250},     // Everything above the cones
		},
		Yellow: []HSVRange{
			{Lower: [3]float64{12, 20, 20}, Upper: [3]float64{70, 100, 250}}, // Primary yellow band
			{Lower: [3]float64{8, 20, 20}, Upper: [3]float64{11, 100, 250}},  // Lower hues under warm light
		},
		Blue: []HSVRange{
			{Lower: [3]float64{80, 125, 8}, Upper: [3]float64{135, 255, 210}},
		},
	}
}

// DetectorConfig holds the area thresholds used when reducing contours
type DetectorConfig struct {
	CandidateArea int `json:"candidate_area"`
	ConfirmedArea int `json:"confirmed_area"`
}

// DefaultDetectorConfig returns the default area thresholds
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		CandidateArea: CandidateAreaThreshold,
		ConfirmedArea: ConfirmedAreaThreshold,
	}
}

// DirectionConfig holds the observation window for direction voting
type DirectionConfig struct {
	WindowFrames int `json:"window_frames"`
}

// DefaultDirectionConfig returns the default observation window
func DefaultDirectionConfig() DirectionConfig {
	return DirectionConfig{WindowFrames: DirectionWindowFrames}
}

// SteeringConfig holds the constants of the steering law
type SteeringConfig struct {
	NearThreshold float64 `json:"near_threshold"`
	Increment     float64 `json:"increment"`
	HardTurn      float64 `json:"hard_turn"`
}

// DefaultSteeringConfig returns the default steering constants
func DefaultSteeringConfig() SteeringConfig {
	return SteeringConfig{
		NearThreshold: ProximityNearThreshold,
		Increment:     ProximityIncrement,
		HardTurn:      HardTurnSteering,
	}
}

// SensorMapping maps message sender stamps to proximity sensor sides
type SensorMapping struct {
	LeftStamp  uint32 `json:"left_stamp"`
	RightStamp uint32 `json:"right_stamp"`
}

// DefaultSensorMapping returns the stamps used by the vehicle's infrared sensors
func DefaultSensorMapping() SensorMapping {
	return SensorMapping{LeftStamp: LeftSenderStamp, RightStamp: RightSenderStamp}
}

// Side resolves a sender stamp. ok is false for stamps that are not mapped.
func (m SensorMapping) Side(stamp uint32) (side Side, ok bool) {
	switch stamp {
	case m.LeftStamp:
		return SideLeft, true
	case m.RightStamp:
		return SideRight, true
	default:
		return 0, false
	}
}

// OutputConfig controls the steering line format
type OutputConfig struct {
	Group string `json:"group"`
}

// ViewConfig controls the optional annotated view
type ViewConfig struct {
	ShowWindow    bool   `json:"show_window"`
	WindowName    string `json:"window_name"`
	SnapshotDir   string `json:"snapshot_dir"`
	SnapshotEvery int    `json:"snapshot_every"`
}

// Config aggregates all pipeline configuration sections.
type Config struct {
	Segmenter SegmenterConfig `json:"segmenter"`
	Detector  DetectorConfig  `json:"detector"`
	Direction DirectionConfig `json:"direction"`
	Steering  SteeringConfig  `json:"steering"`
	Sensors   SensorMapping   `json:"sensors"`
	Output    OutputConfig    `json:"output"`
	View      ViewConfig      `json:"view"`
}

// DefaultConfig returns the configuration the vehicle runs with.
func DefaultConfig() Config {
	return Config{
		Segmenter: DefaultSegmenterConfig(),
		Detector:  DefaultDetectorConfig(),
		Direction: DefaultDirectionConfig(),
		Steering:  DefaultSteeringConfig(),
		Sensors:   DefaultSensorMapping(),
		Output:    OutputConfig{Group: DefaultGroupTag},
		View: ViewConfig{
			WindowName:    "conesteer",
			SnapshotEvery: 10,
		},
	}
}

// LoadConfig reads a JSON file over the defaults. Fields omitted from the
// file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	if len(c.Segmenter.Yellow) == 0 || len(c.Segmenter.Blue) == 0 {
		return errors.New("segmenter needs at least one yellow and one blue range")
	}
	for i, r := range c.Segmenter.Yellow {
		if err := r.validate(); err != nil {
			return fmt.Errorf("yellow range %d: %w", i, err)
		}
	}
	for i, r := range c.Segmenter.Blue {
		if err := r.validate(); err != nil {
			return fmt.Errorf("blue range %d: %w", i, err)
		}
	}
	if c.Detector.CandidateArea < 0 {
		return fmt.Errorf("candidate_area must be >= 0, got %d", c.Detector.CandidateArea)
	}
	if c.Detector.ConfirmedArea < c.Detector.CandidateArea {
		return fmt.Errorf("confirmed_area %d below candidate_area %d", c.Detector.ConfirmedArea, c.Detector.CandidateArea)
	}
	if c.Direction.WindowFrames <= 0 {
		return fmt.Errorf("window_frames must be > 0, got %d", c.Direction.WindowFrames)
	}
	if c.Sensors.LeftStamp == c.Sensors.RightStamp {
		return fmt.Errorf("left and right sensors share stamp %d", c.Sensors.LeftStamp)
	}
	if c.Output.Group == "" {
		return errors.New("output group tag must be set")
	}
	return nil
}
