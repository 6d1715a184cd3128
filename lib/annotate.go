package lib

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// Drawing colors
var (
	blueConeColor   = color.RGBA{0, 255, 0, 0}  // Light green
	yellowConeColor = color.RGBA{58, 82, 6, 0}  // Dark green
	blackoutColor   = color.RGBA{90, 90, 90, 0} // Gray
	white           = color.RGBA{255, 255, 255, 0}
)

// Annotate returns a BGR copy of frame with the candidate regions outlined
// and the current decision written in the corner. The caller closes it.
func Annotate(frame gocv.Mat, r FrameResult, blackout []Box) gocv.Mat {
	out := gocv.NewMat()
	if frame.Channels() == 4 {
		gocv.CvtColor(frame, &out, gocv.ColorBGRAToBGR)
	} else {
		frame.CopyTo(&out)
	}

	for _, box := range blackout {
		gocv.Rectangle(&out, box.Rect(), blackoutColor, 1)
	}
	for _, c := range r.Blue.Candidates {
		gocv.Rectangle(&out, c.Rect, blueConeColor, 3)
	}
	for _, c := range r.Yellow.Candidates {
		gocv.Rectangle(&out, c.Rect, yellowConeColor, 3)
	}

	status := fmt.Sprintf("%s  steer %+.3f  Y%d B%d",
		r.Leading, r.Command.Steering, r.Yellow.Confirmed, r.Blue.Confirmed)
	gocv.PutText(&out, status, image.Pt(10, 25), gocv.FontHersheyPlain, 1.2, white, 2)
	return out
}

// Viewer shows annotated frames in a window and optionally saves every Nth
// one as a PNG.
type Viewer struct {
	Config ViewConfig
	window *gocv.Window
	frames int
}

// NewViewer creates the window and snapshot directory the config asks for.
// The window must be driven from the goroutine that created it.
func NewViewer(config ViewConfig) (*Viewer, error) {
	if config.SnapshotDir != "" {
		if err := os.MkdirAll(config.SnapshotDir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	if config.SnapshotEvery <= 0 {
		config.SnapshotEvery = 1
	}

	var window *gocv.Window
	if config.ShowWindow {
		window = gocv.NewWindow(config.WindowName)
	}
	return &Viewer{Config: config, window: window}, nil
}

// Enabled reports whether the viewer has anything to do
func (v *Viewer) Enabled() bool {
	return v != nil && (v.window != nil || v.Config.SnapshotDir != "")
}

// Show displays img and saves a snapshot when due. It returns true when ESC
// was pressed in the window.
func (v *Viewer) Show(img gocv.Mat) (quit bool, err error) {
	v.frames++
	if v.Config.SnapshotDir != "" && v.frames%v.Config.SnapshotEvery == 0 {
		name := filepath.Join(v.Config.SnapshotDir, fmt.Sprintf("frame-%06d.png", v.frames))
		if ok := gocv.IMWrite(name, img); !ok {
			err = fmt.Errorf("write snapshot %s", name)
		}
	}
	if v.window != nil {
		v.window.IMShow(img)
		if v.window.WaitKey(1) == 27 {
			quit = true
		}
	}
	return quit, err
}

// Close releases the window
func (v *Viewer) Close() {
	if v != nil && v.window != nil {
		v.window.Close()
	}
}
