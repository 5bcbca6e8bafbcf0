// Package web serves the camera screen: a single page with the live
// preview, the two result labels, the flash button and the settings
// prompt, plus the JSON and websocket endpoints that page uses.
package web

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/strawberry-or-nah/pkg/camera"
	"github.com/teslashibe/strawberry-or-nah/pkg/hub"
	"github.com/teslashibe/strawberry-or-nah/pkg/screen"
)

//go:embed static
var staticFiles embed.FS

// DefaultThumbnailSize is the edge length of /api/photo thumbnails.
const DefaultThumbnailSize = 320

// Screen is the controller surface the server drives.
type Screen interface {
	Appear(ctx context.Context) error
	Disappear(ctx context.Context) error
	Tap(ctx context.Context) error
	ToggleFlash(ctx context.Context) (camera.FlashMode, error)
	OpenSettings(ctx context.Context) error
	Snapshot() screen.Snapshot
	Photo() (camera.Photo, bool)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Config holds server configuration.
type Config struct {
	Addr          string
	ThumbnailSize int
	Logger        *slog.Logger
}

// Server is the screen's HTTP server.
type Server struct {
	app     *fiber.App
	addr    string
	thumb   int
	logger  *slog.Logger
	screen  Screen
	session *camera.Session
	checks  map[string]HealthCheck

	// Hubs for websocket broadcast
	previewHub *hub.Hub
	stateHub   *hub.Hub
}

// NewServer creates the server. session may be nil, in which case the
// camera configuration routes are not registered.
func NewServer(scr Screen, session *camera.Session, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ThumbnailSize <= 0 {
		cfg.ThumbnailSize = DefaultThumbnailSize
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	s := &Server{
		addr:       cfg.Addr,
		thumb:      cfg.ThumbnailSize,
		logger:     cfg.Logger.With("component", "web.server"),
		screen:     scr,
		session:    session,
		checks:     make(map[string]HealthCheck),
		previewHub: hub.New("preview", hub.WithLogger(cfg.Logger)),
		stateHub:   hub.New("state", hub.WithLogger(cfg.Logger), hub.WithRetain()),
	}

	app := fiber.New(fiber.Config{
		AppName:               "StrawberryOrNah",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/health", s.handleHealth)
	api.Get("/photo", s.handlePhoto)
	api.Post("/shutter", s.handleShutter)
	api.Post("/flash", s.handleFlash)
	api.Post("/settings", s.handleSettings)
	api.Post("/appear", s.handleAppear)
	api.Post("/disappear", s.handleDisappear)
	if session != nil {
		api.Get("/camera", s.handleGetCamera)
		api.Put("/camera", s.handleUpdateCamera)
		api.Get("/camera/presets", s.handlePresets)
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/preview", websocket.New(s.handleHubWS(s.previewHub)))
	app.Get("/ws/state", websocket.New(s.handleHubWS(s.stateHub)))

	app.Use("/", filesystem.New(filesystem.Config{
		Root:       http.FS(staticFiles),
		PathPrefix: "static",
		Index:      "index.html",
	}))

	s.app = app
	return s
}

// AddHealthCheck registers a named dependency check for /api/health.
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

// PublishState broadcasts a snapshot to /ws/state clients.
func (s *Server) PublishState(snap screen.Snapshot) {
	if err := s.stateHub.BroadcastJSON(snap); err != nil {
		s.logger.Warn("encode state failed", "error", err)
	}
}

// PreviewHub returns the hub preview frames are broadcast on.
func (s *Server) PreviewHub() *hub.Hub {
	return s.previewHub
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the hubs and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go s.previewHub.Run(ctx)
	go s.stateHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errCh <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		return s.app.ShutdownWithTimeout(5 * time.Second)
	}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= 500 {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
