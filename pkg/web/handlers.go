package web

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/strawberry-or-nah/pkg/camera"
	"github.com/teslashibe/strawberry-or-nah/pkg/classify"
	"github.com/teslashibe/strawberry-or-nah/pkg/hub"
	"github.com/teslashibe/strawberry-or-nah/pkg/screen"
)

const requestTimeout = 10 * time.Second

func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

// handleState returns the current screen state.
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.screen.Snapshot())
}

// handleShutter is a tap on the preview.
func (s *Server) handleShutter(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	err := s.screen.Tap(ctx)
	switch {
	case err == nil:
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "capturing"})
	case errors.Is(err, screen.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "busy"})
	case errors.Is(err, screen.ErrNotVisible), errors.Is(err, camera.ErrNotRunning):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		return err
	}
}

// handleFlash toggles the flash mode.
func (s *Server) handleFlash(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	mode, err := s.screen.ToggleFlash(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"flash": mode, "label": mode.Label()})
}

// handleSettings is the settings prompt's action.
func (s *Server) handleSettings(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.screen.OpenSettings(ctx); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(fiber.Map{"status": "opened"})
}

// handleAppear runs when the page becomes visible.
func (s *Server) handleAppear(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.screen.Appear(ctx); err != nil {
		if errors.Is(err, camera.ErrPermissionDenied) {
			return c.JSON(s.screen.Snapshot())
		}
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(s.screen.Snapshot())
}

// handleDisappear runs when the page is hidden.
func (s *Server) handleDisappear(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.screen.Disappear(ctx); err != nil {
		return err
	}
	return c.JSON(s.screen.Snapshot())
}

// handlePhoto returns the last capture as a JPEG thumbnail, or the
// original with ?full=1.
func (s *Server) handlePhoto(c *fiber.Ctx) error {
	photo, ok := s.screen.Photo()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "no photo taken yet")
	}

	data := photo.Data
	if c.Query("full") == "" {
		thumb, err := classify.Thumbnail(photo.Data, s.thumb)
		if err != nil {
			s.logger.Warn("thumbnail failed, sending original", "error", err)
		} else {
			data = thumb
		}
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(data)
}

// handleHealth runs every registered check.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	results := make(fiber.Map, len(s.checks))
	healthy := true
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			healthy = false
		} else {
			results[name] = "ok"
		}
	}

	status := "ok"
	code := fiber.StatusOK
	if !healthy {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{"status": status, "checks": results})
}

// handleGetCamera returns the capture configuration.
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	return c.JSON(s.session.Config())
}

// handleUpdateCamera applies a partial configuration update.
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	var params map[string]any
	if err := c.BodyParser(&params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if err := s.session.UpdateConfig(params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(s.session.Config())
}

// handlePresets lists the resolution presets.
func (s *Server) handlePresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"presets": camera.PresetNames()})
}

// handleHubWS attaches a websocket connection to h until it closes.
func (s *Server) handleHubWS(h *hub.Hub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		client := hub.NewClient(h, conn)
		if client == nil {
			conn.Close()
			return
		}
		client.Run()
	}
}
