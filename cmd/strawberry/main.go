// strawberry-or-nah - point the camera at something, tap, and hear
// whether it is a strawberry.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/strawberry-or-nah/internal/config"
	"github.com/teslashibe/strawberry-or-nah/internal/log"
	"github.com/teslashibe/strawberry-or-nah/pkg/app"
	"github.com/teslashibe/strawberry-or-nah/pkg/camera"
)

type flags struct {
	configPath string
	appear     bool
}

func main() {
	cfg, f, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("configuration error", "error", err, "config", f.configPath)
		os.Exit(2)
	}
	a.AppearOnStart = f.appear

	if err := a.Init(); err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		logger.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

// parseFlags loads the config file and environment, then applies flags on
// top of them.
func parseFlags() (*config.Config, flags, error) {
	var f flags

	flag.StringVar(&f.configPath, "config", os.Getenv("STRAWBERRY_CONFIG"), "YAML config file")
	flag.BoolVar(&f.appear, "appear", false, "Show the screen at startup instead of waiting for a browser")
	debug := flag.Bool("debug", false, "Enable debug logging")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	device := flag.Int("device", -1, "Camera device index (overrides config)")
	preset := flag.String("preset", "", "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	torch := flag.String("torch", "", "LED class directory used as the flash")
	classifiers := flag.String("classifier", "", "Comma-separated classifier backends: onnx, ollama")
	voices := flag.String("speech", "", "Comma-separated speech backends: openai, espeak")
	model := flag.String("model", "", "ONNX model path")
	labels := flag.String("labels", "", "Labels file for the ONNX model")
	flag.Parse()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, f, err
	}

	if *debug {
		cfg.LogLevel = "debug"
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *preset != "" {
		c, ok := camera.ApplyPreset(cfg.Camera, *preset)
		if !ok {
			return nil, f, fmt.Errorf("unknown preset %q", *preset)
		}
		cfg.Camera = c
	}
	if *device >= 0 {
		cfg.Camera.Device = *device
	}
	if *torch != "" {
		cfg.Camera.TorchPath = *torch
	}
	if *classifiers != "" {
		cfg.Classifier.Backends = config.SplitList(*classifiers)
	}
	if *voices != "" {
		cfg.Speech.Backends = config.SplitList(*voices)
	}
	if *model != "" {
		cfg.Classifier.ModelPath = *model
	}
	if *labels != "" {
		cfg.Classifier.LabelsPath = *labels
	}

	return cfg, f, cfg.Validate()
}
