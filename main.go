package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"deskbridge/internal/capture"
	"deskbridge/internal/config"
	"deskbridge/internal/imaging"
	"deskbridge/internal/input"
	"deskbridge/internal/logx"
	"deskbridge/internal/relay"
	"deskbridge/internal/server"
	"deskbridge/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	port := flag.Int("port", 0, "first port to try (default 3000)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	cfg.ApplyEnv(os.Getenv)
	if *port != 0 {
		cfg.StartPort = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if os.Getenv("DISPLAY") == "" {
		// X11 capture and input need a display; assume the local one
		os.Setenv("DISPLAY", ":0")
	}

	logs := logx.NewFactory(cfg.LogLevel, nil)
	mainLog := logs.NewLogger("main")

	srv := server.New(server.Config{
		StartPort:  cfg.StartPort,
		ScanLimit:  cfg.PortScanLimit,
		FPS:        cfg.FPS,
		SendBuffer: cfg.SendBuffer,
		UIBuffer:   cfg.RelayBuffer,
	}, server.Deps{
		Actuator:    input.New(),
		Transformer: imaging.NewResizer(cfg.Thumbnail.Width, cfg.Thumbnail.Height, cfg.Thumbnail.Format),
		Grabber: capture.NewScreen(capture.Options{
			Display: cfg.Display,
			Format:  cfg.CaptureFormat,
			Quality: cfg.Quality,
		}),
		Relay:   relay.New(cfg.RelayBuffer),
		UIFiles: ui.Content(cfg.Mode, cfg.UIDir),
		Logger:  logs,
	})

	if err := srv.Listen(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	mainLog.Infof("connect your device to %s (operator page: http://127.0.0.1:%d/ui/, mode %s)",
		srv.URL(), srv.Port(), cfg.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		mainLog.Errorf("server error: %v", err)
		os.Exit(1)
	}
}
