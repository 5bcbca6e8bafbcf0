// Command classify runs the strawberry pipeline on image files without a
// camera: classify, interpret, print, and optionally speak the result.
//
// Usage:
//
//	go run ./cmd/classify photo.jpg
//	go run ./cmd/classify -classifier ollama -say photo1.jpg photo2.jpg
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/strawberry-or-nah/internal/config"
	"github.com/teslashibe/strawberry-or-nah/internal/log"
	"github.com/teslashibe/strawberry-or-nah/pkg/app"
	"github.com/teslashibe/strawberry-or-nah/pkg/audio"
	"github.com/teslashibe/strawberry-or-nah/pkg/classify"
	"github.com/teslashibe/strawberry-or-nah/pkg/speech"
	"github.com/teslashibe/strawberry-or-nah/pkg/verdict"
)

func main() {
	configPath := flag.String("config", os.Getenv("STRAWBERRY_CONFIG"), "YAML config file")
	backends := flag.String("classifier", "", "Comma-separated classifier backends: onnx, ollama")
	say := flag.Bool("say", false, "Speak each result")
	top := flag.Int("top", 3, "Observations to print per image")
	timeout := flag.Duration("timeout", 30*time.Second, "Per-image classification timeout")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: classify [flags] image.jpg...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}
	if *backends != "" {
		cfg.Classifier.Backends = config.SplitList(*backends)
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	log.Init(cfg.LogLevel)
	logger := log.L()

	chain, err := app.NewClassifier(cfg.Classifier, logger)
	if err != nil {
		logger.Error("no classifier available", "error", err)
		os.Exit(1)
	}
	defer chain.Close()

	var synth *speech.Synth
	if *say {
		voice, err := app.NewVoice(cfg, logger)
		if err != nil {
			logger.Error("no speech backend available", "error", err)
			os.Exit(1)
		}
		defer voice.Close()
		synth = speech.NewSynth(voice, audio.NewPlayer(audio.ParseCommand(cfg.Speech.PlayerCommand), logger), logger)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	failed := 0
	for _, path := range flag.Args() {
		v, obs, err := classifyFile(ctx, chain, path, *timeout)
		if err != nil {
			logger.Error("classification failed", "file", path, "error", err)
			failed++
			continue
		}

		fmt.Printf("%s\n  %s\n", path, v.Identification())
		if c := v.ConfidenceText(); c != "" {
			fmt.Printf("  %s\n", c)
		}
		for _, o := range classify.Top(obs, *top) {
			fmt.Printf("    %-24s %.3f\n", o.Label, o.Confidence)
		}

		if synth != nil {
			if err := synth.Say(ctx, v.Speech()); err != nil {
				logger.Warn("speech failed", "file", path, "error", err)
			}
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func classifyFile(ctx context.Context, p classify.Provider, path string, timeout time.Duration) (verdict.Verdict, []classify.Observation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return verdict.Verdict{}, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	obs, err := p.Classify(ctx, data)
	if err != nil {
		return verdict.Verdict{}, nil, err
	}
	return verdict.Interpret(obs), obs, nil
}
