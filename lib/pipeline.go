package lib

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"conesteer/internal/log"
)

// FrameResult is everything decided for one frame
type FrameResult struct {
	Command      SteeringCommand
	Yellow       ConeObservation
	Blue         ConeObservation
	Direction    TrackDirection // Frozen direction the steering law used
	Leading      TrackDirection // Running vote leader
	Proximity    ProximitySnapshot
	Override     Side // Side whose missing cones forced the steering, zero if none
	WindowClosed bool // This frame closed the direction window
}

// Pipeline turns frames into steering commands. It runs on a single
// goroutine; only the SensorState is shared with other goroutines.
type Pipeline struct {
	Config     Config
	Segmenter  *Segmenter
	Detector   *ConeDetector
	Classifier *DirectionClassifier
	Controller *SteeringController
	Sensors    *SensorState
	Sink       Sink

	// Optional
	Viewer *Viewer
	Stats  *RunStats
	Logger *slog.Logger
}

// NewPipeline wires the stages for cfg. A nil sink drops commands.
func NewPipeline(cfg Config, sensors *SensorState, sink Sink) *Pipeline {
	return &Pipeline{
		Config:     cfg,
		Segmenter:  NewSegmenter(cfg.Segmenter),
		Detector:   NewConeDetector(cfg.Detector),
		Classifier: NewDirectionClassifier(cfg.Direction),
		Controller: NewSteeringController(cfg.Steering),
		Sensors:    sensors,
		Sink:       sink,
		Logger:     log.L(),
	}
}

// Process runs segmentation, detection, direction voting and the steering
// law on one frame.
func (p *Pipeline) Process(frame gocv.Mat, stamp time.Time) FrameResult {
	yellowMask, blueMask := p.Segmenter.Segment(frame)
	yellow := p.Detector.Detect(yellowMask)
	blue := p.Detector.Detect(blueMask)
	yellowMask.Close()
	blueMask.Close()

	closed := p.Classifier.Observe(blue, yellow)
	dir := p.Classifier.Direction()
	prox := p.Sensors.Snapshot()

	decision := p.Controller.Decide(SteeringInput{
		Proximity:       prox,
		YellowConfirmed: yellow.Confirmed,
		BlueConfirmed:   blue.Confirmed,
		Direction:       dir,
	})

	return FrameResult{
		Command:      SteeringCommand{Steering: decision.Steering, Timestamp: stamp},
		Yellow:       yellow,
		Blue:         blue,
		Direction:    dir,
		Leading:      p.Classifier.Leading(),
		Proximity:    prox,
		Override:     decision.Override,
		WindowClosed: closed,
	}
}

// Step waits for the next frame, processes it and emits the command. quit
// is true when the viewer asked to stop.
func (p *Pipeline) Step(src FrameSource) (r FrameResult, quit bool, err error) {
	if err := src.Wait(); err != nil {
		return r, false, err
	}
	frame, stamp, err := CopyFrame(src)
	if err != nil {
		return r, false, err
	}
	defer frame.Close()

	r = p.Process(frame, stamp)
	if r.WindowClosed {
		p.logDecision(r)
	}

	if p.Sink != nil {
		if err := p.Sink.Emit(r.Command); err != nil {
			p.Logger.Warn("emit steering failed", "error", err)
		}
	}
	if p.Stats != nil {
		p.Stats.Record(r)
	}
	p.Logger.Debug("frame",
		"yellow", r.Yellow.Confirmed,
		"blue", r.Blue.Confirmed,
		"leading", r.Leading.String(),
		"steering", r.Command.Steering,
	)

	if p.Viewer.Enabled() {
		annotated := Annotate(frame, r, p.Config.Segmenter.Blackout)
		quit, err = p.Viewer.Show(annotated)
		annotated.Close()
		if err != nil {
			p.Logger.Warn("viewer failed", "error", err)
		}
	}
	return r, quit, nil
}

// Run processes frames until ctx is cancelled, the source closes or the
// viewer asks to quit. Cancellation is only noticed between frames.
func (p *Pipeline) Run(ctx context.Context, src FrameSource) error {
	for ctx.Err() == nil {
		_, quit, err := p.Step(src)
		if errors.Is(err, ErrSourceClosed) && ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		if quit {
			p.Logger.Info("viewer closed, stopping")
			return nil
		}
	}
	return nil
}

func (p *Pipeline) logDecision(r FrameResult) {
	tally := p.Classifier.Tally()
	if r.Direction == DirectionUndetermined {
		p.Logger.Warn("track direction undetermined, cone steering disabled for this run",
			"clockwise_votes", tally.Clockwise,
			"counterclockwise_votes", tally.CounterClockwise,
		)
	} else {
		p.Logger.Info("track direction decided",
			"direction", r.Direction.String(),
			"clockwise_votes", tally.Clockwise,
			"counterclockwise_votes", tally.CounterClockwise,
		)
	}
	for _, side := range []Side{SideLeft, SideRight} {
		reading := r.Proximity.Right
		if side == SideLeft {
			reading = r.Proximity.Left
		}
		if !reading.Valid {
			p.Logger.Warn("no proximity reading received yet", "side", side.String())
		}
	}
}
