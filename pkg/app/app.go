// Package app wires the strawberry-or-nah screen together: camera,
// classifiers, speech, the screen controller and the web surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/teslashibe/strawberry-or-nah/internal/config"
	"github.com/teslashibe/strawberry-or-nah/pkg/audio"
	"github.com/teslashibe/strawberry-or-nah/pkg/camera"
	"github.com/teslashibe/strawberry-or-nah/pkg/camera/opencv"
	"github.com/teslashibe/strawberry-or-nah/pkg/classify"
	"github.com/teslashibe/strawberry-or-nah/pkg/classify/ollama"
	"github.com/teslashibe/strawberry-or-nah/pkg/classify/onnx"
	"github.com/teslashibe/strawberry-or-nah/pkg/preview"
	"github.com/teslashibe/strawberry-or-nah/pkg/screen"
	"github.com/teslashibe/strawberry-or-nah/pkg/speech"
	"github.com/teslashibe/strawberry-or-nah/pkg/tts"
	"github.com/teslashibe/strawberry-or-nah/pkg/web"
)

// App owns every component and their lifecycle.
type App struct {
	config *config.Config
	logger *slog.Logger

	// Camera
	device  *opencv.Device
	session *camera.Session

	// Pipeline
	classifier *classify.Chain
	voice      *tts.Chain
	player     *audio.Player
	controller *screen.Controller

	// Screen surface
	server   *web.Server
	streamer *preview.Streamer

	// AppearOnStart shows the screen without waiting for a browser.
	AppearOnStart bool
}

// New creates an application from a loaded configuration.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		config: cfg,
		logger: logger,
	}, nil
}

// Init builds every component. Call it after New and before Run.
func (a *App) Init() error {
	a.logger.Info("starting strawberry-or-nah",
		"addr", a.config.Server.Addr,
		"preset", a.config.Camera.Preset,
		"classifiers", a.config.Classifier.Backends,
		"speech", a.config.SpeechBackends(),
	)

	if err := a.initClassifier(); err != nil {
		return fmt.Errorf("classifier init: %w", err)
	}
	if err := a.initSpeech(); err != nil {
		return fmt.Errorf("speech init: %w", err)
	}
	if err := a.initScreen(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	a.initWeb()
	return nil
}

func (a *App) initClassifier() error {
	chain, err := NewClassifier(a.config.Classifier, a.logger)
	if err != nil {
		return err
	}
	a.classifier = chain
	return nil
}

// NewClassifier builds the classifier chain in backend order. A backend
// that fails to load is logged and skipped.
func NewClassifier(cc config.ClassifierConfig, logger *slog.Logger) (*classify.Chain, error) {
	var providers []classify.Provider

	for _, backend := range cc.Backends {
		var (
			p   classify.Provider
			err error
		)
		switch backend {
		case config.ClassifierONNX:
			p, err = onnx.New(
				classify.WithModelPath(cc.ModelPath),
				classify.WithLabelsPath(cc.LabelsPath),
				classify.WithInputSize(cc.InputSize, cc.InputSize),
				classify.WithTopK(cc.TopK),
				classify.WithLogger(logger),
			)
		case config.ClassifierOllama:
			p, err = ollama.New(
				classify.WithBaseURL(cc.OllamaHost),
				classify.WithModel(cc.OllamaModel),
				classify.WithMaxDim(cc.MaxDim),
				classify.WithTopK(cc.TopK),
				classify.WithLogger(logger),
			)
		default:
			err = fmt.Errorf("unknown backend %q", backend)
		}
		if err != nil {
			logger.Warn("classifier backend unavailable", "backend", backend, "error", err)
			continue
		}
		providers = append(providers, p)
	}
	return classify.NewChainWithLogger(logger, providers...)
}

func (a *App) initSpeech() error {
	chain, err := NewVoice(a.config, a.logger)
	if err != nil {
		return err
	}
	a.voice = chain
	a.player = audio.NewPlayer(audio.ParseCommand(a.config.Speech.PlayerCommand), a.logger)
	return nil
}

// NewVoice builds the text-to-speech chain in backend order, skipping
// OpenAI when no key is configured.
func NewVoice(cfg *config.Config, logger *slog.Logger) (*tts.Chain, error) {
	sc := cfg.Speech
	var providers []tts.Provider

	for _, backend := range cfg.SpeechBackends() {
		var (
			p   tts.Provider
			err error
		)
		switch backend {
		case config.SpeechOpenAI:
			p, err = tts.NewOpenAI(
				tts.WithAPIKey(sc.OpenAIKey),
				tts.WithVoice(sc.OpenAIVoice),
				tts.WithModel(sc.OpenAIModel),
				tts.WithLogger(logger),
			)
		case config.SpeechEspeak:
			p, err = tts.NewEspeak(
				tts.WithVoice(sc.EspeakVoice),
				tts.WithSpeed(sc.EspeakSpeed),
				tts.WithLogger(logger),
			)
		default:
			err = fmt.Errorf("unknown backend %q", backend)
		}
		if err != nil {
			logger.Warn("speech backend unavailable", "backend", backend, "error", err)
			continue
		}
		providers = append(providers, p)
	}
	return tts.NewChainWithLogger(logger, providers...)
}

func (a *App) initScreen() error {
	a.device = opencv.New(a.logger)
	a.session = camera.NewSession(a.config.Camera)

	ctrl, err := screen.New(screen.Deps{
		Device:     a.device,
		Authorizer: camera.NewSessionAuthorizer(a.session),
		Opener:     camera.NewCommandOpener(strings.Fields(a.config.Permission.SettingsCommand)),
		Classifier: a.classifier,
		Speaker:    speech.NewSynth(a.voice, a.player, a.logger),
	},
		screen.WithCamera(a.config.Camera),
		screen.WithTimeouts(
			a.config.Pipeline.CaptureTimeout,
			a.config.Pipeline.ClassifyTimeout,
			a.config.Pipeline.SpeakTimeout,
		),
		screen.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	a.controller = ctrl

	a.session.OnConfigChange = func(cfg camera.Config) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ctrl.Reconfigure(ctx, cfg)
	}
	return nil
}

func (a *App) initWeb() {
	a.server = web.NewServer(a.controller, a.session, web.Config{
		Addr:          a.config.Server.Addr,
		ThumbnailSize: a.config.Server.ThumbnailSize,
		Logger:        a.logger,
	})
	a.server.AddHealthCheck("classifier", a.classifier.Health)
	a.server.AddHealthCheck("speech", a.voice.Health)

	a.controller.OnUpdate = a.server.PublishState
	a.streamer = preview.New(a.device, a.server.PreviewHub(), a.config.Camera.Framerate, a.logger)
}

// Run starts the controller, the preview streamer and the web server and
// blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a.controller == nil {
		return errors.New("app: Run called before Init")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := a.controller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("screen controller stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		a.streamer.Run(ctx)
	}()

	if a.AppearOnStart {
		go func() {
			if err := a.controller.Appear(ctx); err != nil {
				a.logger.Warn("appear on start failed", "error", err)
			}
		}()
	}

	err := a.server.Run(ctx)
	cancel()
	wg.Wait()
	return err
}

// Shutdown releases the camera and backends.
func (a *App) Shutdown() {
	a.logger.Info("shutting down")

	if a.player != nil {
		a.player.Cancel()
	}
	if a.device != nil {
		if err := a.device.Close(); err != nil {
			a.logger.Warn("camera close failed", "error", err)
		}
	}
	if a.classifier != nil {
		if err := a.classifier.Close(); err != nil {
			a.logger.Warn("classifier close failed", "error", err)
		}
	}
	if a.voice != nil {
		if err := a.voice.Close(); err != nil {
			a.logger.Warn("speech close failed", "error", err)
		}
	}
}
