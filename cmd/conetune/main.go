// Command conetune shows a camera feed next to the yellow and blue cone masks
// so the HSV ranges in a tuning file can be checked against the real track.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"gocv.io/x/gocv"

	"conesteer/internal/log"
	"conesteer/lib"
)

func main() {
	device := flag.String("camera", "0", "Camera index or video path.")
	width := flag.Int("width", 640, "Frame width in pixels.")
	height := flag.Int("height", 480, "Frame height in pixels.")
	configPath := flag.String("config", "", "Path to a JSON tuning file.")
	flag.Parse()

	cfg := lib.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = lib.LoadConfig(*configPath); err != nil {
			log.Error("load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}

	cam, err := lib.OpenCameraSource(*device, *width, *height)
	if err != nil {
		log.Error("open camera", "device", *device, "error", err)
		os.Exit(1)
	}
	defer cam.Close()

	window := gocv.NewWindow("Cone Tuning")
	defer window.Close()

	segmenter := lib.NewSegmenter(cfg.Segmenter)
	detector := lib.NewConeDetector(cfg.Detector)
	classifier := lib.NewDirectionClassifier(cfg.Direction)

	black := color.RGBA{0, 0, 0, 0}
	white := color.RGBA{255, 255, 255, 0}
	statusBarHeight := 40

	log.Info("tuning started, press ESC to exit", "device", *device)
	for {
		if err := cam.Wait(); err != nil {
			log.Error("read camera", "error", err)
			return
		}
		frame, stamp, err := lib.CopyFrame(cam)
		if err != nil {
			log.Error("copy frame", "error", err)
			return
		}

		yellowMask, blueMask := segmenter.Segment(frame)
		yellow := detector.Detect(yellowMask)
		blue := detector.Detect(blueMask)
		classifier.Observe(blue, yellow)

		result := lib.FrameResult{
			Command: lib.SteeringCommand{Timestamp: stamp},
			Yellow:  yellow,
			Blue:    blue,
			Leading: classifier.Leading(),
		}
		annotated := lib.Annotate(frame, result, cfg.Segmenter.Blackout)

		// Original on top, yellow and blue masks side by side below
		w, h := *width, *height
		display := gocv.NewMatWithSize(h*2+statusBarHeight, w*2, gocv.MatTypeCV8UC3)
		gocv.Rectangle(&display, image.Rect(0, 0, w*2, h*2+statusBarHeight), black, -1)

		roi := display.Region(image.Rect(w/2, 0, w/2+w, h))
		annotated.CopyTo(&roi)
		roi.Close()

		for i, mask := range []gocv.Mat{yellowMask, blueMask} {
			colored := gocv.NewMat()
			gocv.CvtColor(mask, &colored, gocv.ColorGrayToBGR)
			roi = display.Region(image.Rect(i*w, h+statusBarHeight, (i+1)*w, h*2+statusBarHeight))
			colored.CopyTo(&roi)
			roi.Close()
			colored.Close()
		}

		status := fmt.Sprintf("yellow %d  blue %d  %s  %s",
			yellow.Confirmed, blue.Confirmed, classifier.Leading(), time.Now().Format("15:04:05"))
		gocv.PutText(&display, status, image.Pt(10, h+statusBarHeight-12), gocv.FontHersheyPlain, 1.2, white, 2)

		window.IMShow(display)
		key := window.WaitKey(1)

		display.Close()
		annotated.Close()
		yellowMask.Close()
		blueMask.Close()
		frame.Close()

		if key == 27 {
			return
		}
	}
}
