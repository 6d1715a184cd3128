package lib

// SteeringInput is everything the steering law looks at for one frame
type SteeringInput struct {
	Proximity       ProximitySnapshot
	YellowConfirmed int
	BlueConfirmed   int
	Direction       TrackDirection
}

// SteeringController computes a steering value from proximity readings and
// cone counts. It keeps no state between frames.
type SteeringController struct {
	Config SteeringConfig
}

// NewSteeringController creates a controller with the given constants
func NewSteeringController(config SteeringConfig) *SteeringController {
	return &SteeringController{Config: config}
}

// Steer applies the steering law.
//
// The proximity rule nudges away from a close obstacle on either side; both
// may fire and cancel out. When the track direction is known, a side with no
// confirmed cones forces a hard turn. The right-side override is applied
// first and the left-side override last, so left wins when both fire.
func (c *SteeringController) Steer(in SteeringInput) float64 {
	return c.Decide(in).Steering
}

// SteeringDecision is a steering value plus the override that produced it
type SteeringDecision struct {
	Steering float64
	Override Side // Side whose missing cones forced the value, zero if none
}

// Decide applies the steering law and reports which override, if any, won.
func (c *SteeringController) Decide(in SteeringInput) SteeringDecision {
	var d SteeringDecision
	if c.near(in.Proximity.Right) {
		d.Steering += c.Config.Increment
	}
	if c.near(in.Proximity.Left) {
		d.Steering -= c.Config.Increment
	}

	right, left, ok := Relabel(in.Direction, in.YellowConfirmed, in.BlueConfirmed)
	if !ok {
		return d
	}
	if right == 0 {
		d.Steering = -c.Config.HardTurn
		d.Override = SideRight
	}
	if left == 0 {
		d.Steering = c.Config.HardTurn
		d.Override = SideLeft
	}
	return d
}

// near reports whether an obstacle is close. Sides without a reading never are.
func (c *SteeringController) near(r SensorReading) bool {
	return r.Valid && r.Voltage < c.Config.NearThreshold
}

// Relabel maps the yellow and blue counts to the right and left sides of the
// vehicle for the given direction. ok is false when the direction is unknown.
func Relabel(dir TrackDirection, yellow, blue int) (right, left int, ok bool) {
	switch dir {
	case DirectionClockwise:
		return yellow, blue, true
	case DirectionCounterClockwise:
		return blue, yellow, true
	default:
		return 0, 0, false
	}
}
