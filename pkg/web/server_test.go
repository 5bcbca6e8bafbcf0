package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/strawberry-or-nah/pkg/camera"
	"github.com/teslashibe/strawberry-or-nah/pkg/classify"
	"github.com/teslashibe/strawberry-or-nah/pkg/screen"
	"github.com/teslashibe/strawberry-or-nah/pkg/speech"
	"github.com/teslashibe/strawberry-or-nah/pkg/web"
)

type env struct {
	srv     *web.Server
	ctrl    *screen.Controller
	device  *camera.Mock
	session *camera.Session
	opener  *camera.MockOpener
}

func newEnv(t *testing.T, auth camera.Authorization) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := &env{
		device:  camera.NewMock(),
		session: camera.NewSession(camera.DefaultConfig()),
		opener:  &camera.MockOpener{},
	}
	ctrl, err := screen.New(screen.Deps{
		Device:     e.device,
		Authorizer: camera.NewMockAuthorizer(auth, auth),
		Opener:     e.opener,
		Classifier: classify.NewMock(classify.Observation{Label: "strawberry", Confidence: 0.91}),
		Speaker:    speech.NewMock(),
	}, screen.WithLogger(logger))
	if err != nil {
		t.Fatalf("screen.New: %v", err)
	}
	e.ctrl = ctrl

	ctx, cancel := context.WithCancel(context.Background())
	go ctrl.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-ctrl.Done()
	})

	e.srv = web.NewServer(ctrl, e.session, web.Config{Logger: logger})
	return e
}

func (e *env) do(t *testing.T, method, path string, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.srv.App().Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func (e *env) waitIdle(t *testing.T, cycles int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := e.ctrl.Snapshot(); s.Cycles == cycles && !s.Busy {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("cycle %d did not finish", cycles)
}

func TestIndex(t *testing.T) {
	e := newEnv(t, camera.Authorized)
	resp, _ := e.do(t, http.MethodGet, "/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	if !strings.Contains(page, "/ws/preview") {
		t.Error("expected the screen page")
	}
	for _, want := range []string{`id="captured"`, "/api/photo?t=", "s.has_photo", "s.cycle_id"} {
		if !strings.Contains(page, want) {
			t.Errorf("page should show the captured photo, missing %q", want)
		}
	}
}

func TestShutterFlow(t *testing.T) {
	e := newEnv(t, camera.Authorized)

	t.Run("shutter before appear", func(t *testing.T) {
		resp, _ := e.do(t, http.MethodPost, "/api/shutter", "")
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", resp.StatusCode)
		}
	})

	t.Run("appear", func(t *testing.T) {
		resp, state := e.do(t, http.MethodPost, "/api/appear", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if state["camera_running"] != true {
			t.Errorf("expected camera running, got %v", state)
		}
	})

	t.Run("tap classifies", func(t *testing.T) {
		resp, _ := e.do(t, http.MethodPost, "/api/shutter", "")
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("status = %d, want 202", resp.StatusCode)
		}
		e.waitIdle(t, 1)

		_, state := e.do(t, http.MethodGet, "/api/state", "")
		if state["identification"] != "Strawberry" || state["confidence"] != "CONFIDENCE: 91%" {
			t.Errorf("unexpected state %v", state)
		}
	})

	t.Run("photo", func(t *testing.T) {
		resp, _ := e.do(t, http.MethodGet, "/api/photo", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("content type = %q", ct)
		}
		body, _ := io.ReadAll(resp.Body)
		if len(body) == 0 {
			t.Error("expected image bytes")
		}
	})

	t.Run("photo by cycle id", func(t *testing.T) {
		_, state := e.do(t, http.MethodGet, "/api/state", "")
		cycle, _ := state["cycle_id"].(string)
		if state["has_photo"] != true || cycle == "" {
			t.Fatalf("expected has_photo with a cycle id, got %v", state)
		}
		resp, _ := e.do(t, http.MethodGet, "/api/photo?t="+cycle, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
			t.Errorf("cache control = %q", cc)
		}
	})

	t.Run("disappear", func(t *testing.T) {
		resp, state := e.do(t, http.MethodPost, "/api/disappear", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if state["camera_running"] != false || state["visible"] != false {
			t.Errorf("unexpected state %v", state)
		}
	})
}

func TestShutterBusy(t *testing.T) {
	e := newEnv(t, camera.Authorized)
	e.device.Hold = make(chan struct{})
	defer close(e.device.Hold)

	e.do(t, http.MethodPost, "/api/appear", "")
	if resp, _ := e.do(t, http.MethodPost, "/api/shutter", ""); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("first tap status = %d", resp.StatusCode)
	}

	resp, body := e.do(t, http.MethodPost, "/api/shutter", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
	if body["error"] != "busy" {
		t.Errorf("body = %v", body)
	}
	if n := e.device.CallCount("Capture"); n != 1 {
		t.Errorf("expected 1 capture, got %d", n)
	}
}

func TestFlash(t *testing.T) {
	e := newEnv(t, camera.Authorized)

	_, body := e.do(t, http.MethodPost, "/api/flash", "")
	if body["flash"] != "on" || body["label"] != "FLASH ON" {
		t.Errorf("first toggle = %v", body)
	}
	_, body = e.do(t, http.MethodPost, "/api/flash", "")
	if body["flash"] != "off" || body["label"] != "FLASH OFF" {
		t.Errorf("second toggle = %v", body)
	}
}

func TestDeniedPrompt(t *testing.T) {
	e := newEnv(t, camera.Denied)

	_, state := e.do(t, http.MethodPost, "/api/appear", "")
	prompt, ok := state["prompt"].(map[string]any)
	if !ok {
		t.Fatalf("expected prompt, got %v", state)
	}
	if prompt["action"] != "Open Settings" {
		t.Errorf("unexpected prompt %v", prompt)
	}
	if e.device.CallCount("Configure") != 0 {
		t.Error("camera must not be configured")
	}

	resp, _ := e.do(t, http.MethodPost, "/api/settings", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if e.opener.Opens() != 1 {
		t.Errorf("expected settings opened")
	}
}

func TestPhotoMissing(t *testing.T) {
	e := newEnv(t, camera.Authorized)
	resp, body := e.do(t, http.MethodGet, "/api/photo", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if body["error"] == nil {
		t.Error("expected error body")
	}
}

func TestHealth(t *testing.T) {
	e := newEnv(t, camera.Authorized)

	e.srv.AddHealthCheck("classifier", func(context.Context) error { return nil })
	resp, body := e.do(t, http.MethodGet, "/api/health", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthy: %d %v", resp.StatusCode, body)
	}

	e.srv.AddHealthCheck("speech", func(context.Context) error { return errors.New("espeak-ng not found") })
	resp, body = e.do(t, http.MethodGet, "/api/health", "")
	if resp.StatusCode != http.StatusServiceUnavailable || body["status"] != "degraded" {
		t.Errorf("degraded: %d %v", resp.StatusCode, body)
	}
}

func TestCameraConfig(t *testing.T) {
	e := newEnv(t, camera.Authorized)

	_, body := e.do(t, http.MethodGet, "/api/camera", "")
	if body["width"] != float64(1920) {
		t.Errorf("unexpected config %v", body)
	}

	resp, body := e.do(t, http.MethodPut, "/api/camera", `{"preset":"vga640x480","framerate":10}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %v", resp.StatusCode, body)
	}
	if body["width"] != float64(640) || body["framerate"] != float64(10) {
		t.Errorf("unexpected config %v", body)
	}

	resp, _ = e.do(t, http.MethodPut, "/api/camera", `{"quality":0}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	_, body = e.do(t, http.MethodGet, "/api/camera/presets", "")
	if presets, ok := body["presets"].([]any); !ok || len(presets) != 3 {
		t.Errorf("unexpected presets %v", body)
	}
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	e := newEnv(t, camera.Authorized)
	resp, _ := e.do(t, http.MethodGet, "/ws/state", "")
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}
