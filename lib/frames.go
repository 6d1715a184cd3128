package lib

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

var (
	ErrSourceClosed = errors.New("frame source closed")
	ErrShortFrame   = errors.New("frame buffer smaller than width*height*4")
)

// BytesPerPixel is the size of one BGRA pixel
const BytesPerPixel = 4

// FrameSource delivers BGRA frames of a fixed size.
//
// Wait blocks until a new frame is available. Data and Timestamp are only
// meaningful between Lock and Unlock.
type FrameSource interface {
	Name() string
	Width() int
	Height() int
	Wait() error
	Lock() error
	Unlock() error
	Data() []byte
	Timestamp() time.Time
	Close() error
}

// CopyFrame clones the locked source buffer into a Mat owned by the caller.
func CopyFrame(src FrameSource) (gocv.Mat, time.Time, error) {
	if err := src.Lock(); err != nil {
		return gocv.NewMat(), time.Time{}, fmt.Errorf("lock %s: %w", src.Name(), err)
	}
	defer src.Unlock()

	data := src.Data()
	need := src.Width() * src.Height() * BytesPerPixel
	if len(data) < need {
		return gocv.NewMat(), time.Time{}, fmt.Errorf("%s: %d bytes, need %d: %w", src.Name(), len(data), need, ErrShortFrame)
	}

	wrapped, err := gocv.NewMatFromBytes(src.Height(), src.Width(), gocv.MatTypeCV8UC4, data[:need])
	if err != nil {
		return gocv.NewMat(), time.Time{}, fmt.Errorf("wrap frame: %w", err)
	}
	defer wrapped.Close()

	return wrapped.Clone(), src.Timestamp(), nil
}

// CameraSource reads frames from a capture device and republishes them as
// BGRA buffers of the configured size.
type CameraSource struct {
	name   string
	width  int
	height int
	webcam *gocv.VideoCapture
	raw    gocv.Mat
	sized  gocv.Mat
	bgra   gocv.Mat

	mu    sync.Mutex
	data  []byte
	stamp time.Time
	now   func() time.Time
}

// OpenCameraSource opens a capture device. device is either a camera index
// or a path/URL understood by OpenCV.
func OpenCameraSource(device string, width, height int) (*CameraSource, error) {
	var id interface{} = device
	if n, err := strconv.Atoi(device); err == nil {
		id = n
	}
	webcam, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("open camera %s: %w", device, err)
	}

	return &CameraSource{
		name:   device,
		width:  width,
		height: height,
		webcam: webcam,
		raw:    gocv.NewMat(),
		sized:  gocv.NewMat(),
		bgra:   gocv.NewMat(),
		now:    time.Now,
	}, nil
}

func (c *CameraSource) Name() string { return c.name }
func (c *CameraSource) Width() int   { return c.width }
func (c *CameraSource) Height() int  { return c.height }

// Wait blocks until the device produces a non-empty frame
func (c *CameraSource) Wait() error {
	for {
		if ok := c.webcam.Read(&c.raw); !ok {
			return ErrSourceClosed
		}
		if !c.raw.Empty() {
			break
		}
	}
	stamp := c.now()

	src := c.raw
	if c.raw.Cols() != c.width || c.raw.Rows() != c.height {
		gocv.Resize(c.raw, &c.sized, image.Pt(c.width, c.height), 0, 0, gocv.InterpolationLinear)
		src = c.sized
	}
	gocv.CvtColor(src, &c.bgra, gocv.ColorBGRToBGRA)

	data := c.bgra.ToBytes()
	c.mu.Lock()
	c.data = data
	c.stamp = stamp
	c.mu.Unlock()
	return nil
}

func (c *CameraSource) Lock() error {
	c.mu.Lock()
	return nil
}

func (c *CameraSource) Unlock() error {
	c.mu.Unlock()
	return nil
}

func (c *CameraSource) Data() []byte         { return c.data }
func (c *CameraSource) Timestamp() time.Time { return c.stamp }

// Close releases the device and buffers
func (c *CameraSource) Close() error {
	c.raw.Close()
	c.sized.Close()
	c.bgra.Close()
	return c.webcam.Close()
}
