package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"conesteer/internal/log"
	"conesteer/lib"
)

func usage() {
	prog := os.Args[0]
	fmt.Fprintf(os.Stderr, "%s attaches to a frame source and prints one steering command per frame.\n", prog)
	fmt.Fprintf(os.Stderr, "Usage:   %s --cid=<session> --name=<frame source> --width=<px> --height=<px> [--verbose]\n", prog)
	fmt.Fprintln(os.Stderr, "         --cid:    session id; proximity readings arrive on 225.0.0.<cid>:12175")
	fmt.Fprintln(os.Stderr, "         --name:   shared memory area to attach (or camera device with --source=camera)")
	fmt.Fprintln(os.Stderr, "         --width:  width of the frame")
	fmt.Fprintln(os.Stderr, "         --height: height of the frame")
	fmt.Fprintf(os.Stderr, "Example: %s --cid=253 --name=img --width=640 --height=480 --verbose\n", prog)
	fmt.Fprintln(os.Stderr, "\nAll flags:")
	flag.PrintDefaults()
}

func fatal(msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}

func main() {
	var (
		cid            = flag.Int("cid", -1, "Session id (1-254).")
		name           = flag.String("name", "", "Name of the shared memory area, or camera device.")
		width          = flag.Int("width", 0, "Frame width in pixels.")
		height         = flag.Int("height", 0, "Frame height in pixels.")
		verbose        = flag.Bool("verbose", false, "Show the annotated frame in a window.")
		source         = flag.String("source", "shm", "Frame source: shm or camera.")
		configPath     = flag.String("config", "", "Path to a JSON tuning file.")
		group          = flag.String("group", "", "Override the group tag of steering lines.")
		sensorUDP      = flag.String("sensor-udp", "", "Address for proximity readings (default: the session multicast group).")
		sensorSerial   = flag.String("sensor-serial", "", "Serial port delivering proximity readings.")
		sensorBaud     = flag.Int("sensor-baud", 115200, "Baud rate of --sensor-serial.")
		outputUDP      = flag.String("output-udp", "", "Also send steering lines to this UDP address.")
		actuatorSerial = flag.String("actuator-serial", "", "Also send steering lines to this serial port.")
		actuatorBaud   = flag.Int("actuator-baud", 115200, "Baud rate of --actuator-serial.")
		snapshotDir    = flag.String("snapshot-dir", "", "Write annotated frames to this directory.")
		snapshotEvery  = flag.Int("snapshot-every", 0, "Write every Nth annotated frame (default from config).")
		logLevel       = flag.String("log-level", "info", "Log level: debug, info, warn, error.")
	)
	flag.Usage = usage
	flag.Parse()

	if *cid < 1 || *cid > 254 || *name == "" || *width <= 0 || *height <= 0 {
		flag.Usage()
		os.Exit(1)
	}

	log.Init(*logLevel)
	runID := uuid.NewString()
	logger := log.With("run", runID)

	cfg := lib.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = lib.LoadConfig(*configPath)
		if err != nil {
			fatal("load config", "path", *configPath, "error", err)
		}
	}
	if *group != "" {
		cfg.Output.Group = *group
	}
	cfg.View.ShowWindow = *verbose
	if *snapshotDir != "" {
		cfg.View.SnapshotDir = *snapshotDir
	}
	if *snapshotEvery > 0 {
		cfg.View.SnapshotEvery = *snapshotEvery
	}

	// Frame source
	var src lib.FrameSource
	switch *source {
	case "shm":
		shm, err := lib.OpenShmSource(*name, *width, *height)
		if err != nil {
			fatal("attach shared memory", "name", *name, "error", err)
		}
		logger.Info("attached to shared memory", "name", *name, "bytes", shm.Size())
		src = shm
	case "camera":
		cam, err := lib.OpenCameraSource(*name, *width, *height)
		if err != nil {
			fatal("open camera", "device", *name, "error", err)
		}
		logger.Info("opened camera", "device", *name)
		src = cam
	default:
		fatal("unknown frame source", "source", *source)
	}
	defer src.Close()
	cfg.View.WindowName = src.Name()

	// A second signal kills the process if the loop is blocked waiting for a frame
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()

	// Sensor feeds
	sensors := lib.NewSensorState()
	feeds := []lib.SensorFeed{}
	udpAddr := *sensorUDP
	if udpAddr == "" {
		udpAddr = lib.SessionAddr(*cid)
	}
	feeds = append(feeds, &lib.UDPFeed{Addr: udpAddr, Mapping: cfg.Sensors})
	if *sensorSerial != "" {
		feeds = append(feeds, &lib.SerialFeed{Port: *sensorSerial, BaudRate: *sensorBaud, Mapping: cfg.Sensors})
	}
	for _, feed := range feeds {
		go func(feed lib.SensorFeed) {
			if err := feed.Run(ctx, sensors); err != nil {
				logger.Error("sensor feed stopped", "error", err)
			}
		}(feed)
	}

	// Sinks
	sinks := lib.MultiSink{lib.NewWriterSink(os.Stdout, cfg.Output.Group)}
	if *outputUDP != "" {
		udp, err := lib.NewUDPSink(*outputUDP, cfg.Output.Group)
		if err != nil {
			fatal("open steering output", "addr", *outputUDP, "error", err)
		}
		defer udp.Close()
		sinks = append(sinks, udp)
	}
	if *actuatorSerial != "" {
		actuator := lib.NewSerialSink(*actuatorSerial, *actuatorBaud, cfg.Output.Group)
		if err := actuator.Connect(); err != nil {
			fatal("connect actuator", "port", *actuatorSerial, "error", err)
		}
		defer actuator.Close()
		logger.Info("connected to actuator", "port", *actuatorSerial)
		sinks = append(sinks, actuator)
	}

	viewer, err := lib.NewViewer(cfg.View)
	if err != nil {
		fatal("create viewer", "error", err)
	}
	defer viewer.Close()

	pipeline := lib.NewPipeline(cfg, sensors, sinks)
	pipeline.Viewer = viewer
	pipeline.Stats = lib.NewRunStats()
	pipeline.Logger = logger

	logger.Info("steering loop started", "source", *source, "width", *width, "height", *height)
	runErr := pipeline.Run(ctx, src)

	s := pipeline.Stats.Summary()
	logger.Info("run finished",
		"frames", s.Frames,
		"steering_mean", s.SteeringMean,
		"steering_stddev", s.SteeringStdDev,
		"yellow_mean", s.YellowMean,
		"blue_mean", s.BlueMean,
		"right_overrides", s.RightOverrides,
		"left_overrides", s.LeftOverrides,
		"direction", pipeline.Classifier.Direction().String(),
	)
	if runErr != nil {
		fatal("steering loop failed", "error", runErr)
	}
}
