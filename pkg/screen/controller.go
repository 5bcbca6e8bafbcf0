// Package screen implements the camera screen: permission handling on
// appear, the shutter, the flash toggle and the capture, classify and
// speak cycle.
//
// All state is owned by one goroutine started with Run. Operations and
// device callbacks are posted to it as events, so no two handlers ever
// run at the same time. Readers get copies through Snapshot and OnUpdate.
package screen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/strawberry-or-nah/pkg/camera"
	"github.com/teslashibe/strawberry-or-nah/pkg/classify"
	"github.com/teslashibe/strawberry-or-nah/pkg/verdict"
)

const eventBuffer = 32

// Controller drives one camera screen.
type Controller struct {
	deps   Deps
	config *Config
	logger *slog.Logger

	// OnUpdate receives every new snapshot, on the loop goroutine.
	// Set it before Run; it must not block.
	OnUpdate func(Snapshot)

	events  chan event
	done    chan struct{}
	started atomic.Bool

	mu        sync.RWMutex
	published Snapshot
	photo     camera.Photo

	// Owned by the loop.
	st            state
	runCtx        context.Context
	cycleCtx      context.Context
	cycleCancel   context.CancelFunc
	timer         *time.Timer
	pendingAppear []chan reply
	outbox        []pendingReply
}

type pendingReply struct {
	ch chan reply
	r  reply
}

// New creates a controller. Call Run to start it.
func New(deps Deps, opts ...Option) (*Controller, error) {
	if deps.Device == nil {
		return nil, errors.New("screen: camera device required")
	}
	if deps.Authorizer == nil {
		return nil, errors.New("screen: authorizer required")
	}
	if deps.Classifier == nil {
		return nil, errors.New("screen: classifier required")
	}
	if deps.Speaker == nil {
		return nil, errors.New("screen: speaker required")
	}

	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Controller{
		deps:   deps,
		config: cfg,
		logger: cfg.Logger.With("component", "screen.controller"),
		events: make(chan event, eventBuffer),
		done:   make(chan struct{}),
	}
	c.published = c.st.snapshot()
	return c, nil
}

// Run processes events until ctx is cancelled. The camera is stopped on
// the way out.
func (c *Controller) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("screen: controller already running")
	}
	c.runCtx = ctx
	defer close(c.done)
	defer c.shutdown()

	c.logger.Info("controller started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.events:
			c.handle(ev)
			c.publish()
			c.flush()
		}
	}
}

// Appear runs when the screen becomes visible. Authorized starts the
// camera; Denied shows the settings prompt; NotDetermined asks first and
// returns once the answer has been acted on.
func (c *Controller) Appear(ctx context.Context) error {
	_, err := c.call(ctx, request{op: opAppear})
	return err
}

// Disappear stops the camera and resets transient state.
func (c *Controller) Disappear(ctx context.Context) error {
	_, err := c.call(ctx, request{op: opDisappear})
	return err
}

// Tap is the shutter. It returns ErrBusy without touching the camera
// while a previous cycle is still running.
func (c *Controller) Tap(ctx context.Context) error {
	_, err := c.call(ctx, request{op: opTap})
	return err
}

// ToggleFlash flips the flash mode used by the next capture.
func (c *Controller) ToggleFlash(ctx context.Context) (camera.FlashMode, error) {
	r, err := c.call(ctx, request{op: opToggleFlash})
	return r.flash, err
}

// OpenSettings dismisses the settings prompt and opens the host's
// permission settings.
func (c *Controller) OpenSettings(ctx context.Context) error {
	if _, err := c.call(ctx, request{op: opDismissPrompt}); err != nil {
		return err
	}
	if c.deps.Opener == nil {
		return errors.New("screen: no settings opener configured")
	}
	if err := c.deps.Opener.Open(ctx); err != nil {
		c.logger.Warn("open settings failed", "error", err)
		return err
	}
	return nil
}

// Reconfigure applies a new camera configuration, restarting the camera
// if it is running.
func (c *Controller) Reconfigure(ctx context.Context, cfg camera.Config) error {
	_, err := c.call(ctx, request{op: opReconfigure, camera: cfg})
	return err
}

// Snapshot returns the latest published state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.published
}

// Photo returns the most recent capture. Each capture replaces it.
func (c *Controller) Photo() (camera.Photo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.photo, !c.photo.Empty()
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// call posts a request and waits for the loop's reply.
func (c *Controller) call(ctx context.Context, req request) (reply, error) {
	req.reply = make(chan reply, 1)
	select {
	case c.events <- req:
	case <-ctx.Done():
		return reply{}, ctx.Err()
	case <-c.done:
		return reply{}, ErrStopped
	}

	select {
	case r := <-req.reply:
		return r, r.err
	case <-ctx.Done():
		return reply{}, ctx.Err()
	case <-c.done:
		return reply{}, ErrStopped
	}
}

// post delivers a callback event. Events arriving after Run returns are dropped.
func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// respond queues a reply until the state it reflects is published.
func (c *Controller) respond(ch chan reply, r reply) {
	c.outbox = append(c.outbox, pendingReply{ch: ch, r: r})
}

func (c *Controller) flush() {
	for _, p := range c.outbox {
		p.ch <- p.r
	}
	c.outbox = c.outbox[:0]
}

func (c *Controller) publish() {
	snap := c.st.snapshot()
	c.mu.Lock()
	c.published = snap
	c.photo = c.st.photo
	c.mu.Unlock()

	if c.OnUpdate != nil {
		c.OnUpdate(snap)
	}
}

func (c *Controller) handle(ev event) {
	switch ev := ev.(type) {
	case request:
		c.handleRequest(ev)
	case permissionResolved:
		c.onPermission(ev)
	case captured:
		c.onCaptured(ev)
	case classified:
		c.onClassified(ev)
	case spoken:
		c.onSpoken(ev)
	case stageTimeout:
		c.onTimeout(ev)
	}
}

func (c *Controller) handleRequest(req request) {
	switch req.op {
	case opAppear:
		c.appear(req)
	case opDisappear:
		c.disappear()
		c.respond(req.reply, reply{})
	case opTap:
		c.respond(req.reply, reply{err: c.tap()})
	case opToggleFlash:
		c.st.flash = c.st.flash.Toggle()
		c.logger.Debug("flash toggled", "flash", c.st.flash)
		c.respond(req.reply, reply{flash: c.st.flash})
	case opDismissPrompt:
		c.st.prompt = nil
		c.respond(req.reply, reply{})
	case opReconfigure:
		c.respond(req.reply, reply{err: c.reconfigure(req.camera)})
	}
}

func (c *Controller) appear(req request) {
	c.st.visible = true
	status := c.deps.Authorizer.Status()
	c.st.permission = status

	switch status {
	case camera.Authorized:
		c.respond(req.reply, reply{err: c.startCamera()})
	case camera.Denied:
		c.deny()
		c.respond(req.reply, reply{})
	default:
		c.pendingAppear = append(c.pendingAppear, req.reply)
		if len(c.pendingAppear) > 1 {
			return
		}
		c.logger.Info("requesting camera access")
		ctx := c.runCtx
		go func() {
			status, err := c.deps.Authorizer.Request(ctx)
			c.post(permissionResolved{status: status, err: err})
		}()
	}
}

func (c *Controller) onPermission(ev permissionResolved) {
	pending := c.pendingAppear
	c.pendingAppear = nil

	var err error
	if ev.err != nil {
		c.logger.Warn("permission request failed", "error", ev.err)
	}
	c.st.permission = ev.status

	if c.st.visible {
		switch ev.status {
		case camera.Authorized:
			err = c.startCamera()
		case camera.Denied:
			c.deny()
		default:
			c.logger.Warn("camera access still undetermined")
		}
	}

	for _, ch := range pending {
		c.respond(ch, reply{err: err})
	}
}

func (c *Controller) deny() {
	c.logger.Warn("camera access denied", "kind", KindPermissionDenied)
	p := SettingsPrompt
	c.st.prompt = &p
}

func (c *Controller) startCamera() error {
	if c.st.running {
		return nil
	}
	if err := c.deps.Device.Configure(c.config.Camera); err != nil {
		c.cameraError(err)
		return err
	}
	if err := c.deps.Device.Start(); err != nil {
		c.cameraError(err)
		return err
	}
	c.st.running = true
	c.st.prompt = nil
	c.st.lastError = ""
	c.logger.Info("camera started",
		"width", c.config.Camera.Width,
		"height", c.config.Camera.Height,
		"fps", c.config.Camera.Framerate,
	)
	return nil
}

func (c *Controller) cameraError(err error) {
	c.st.lastError = err.Error()
	if errors.Is(err, camera.ErrPermissionDenied) {
		c.st.permission = camera.Denied
		c.deny()
		return
	}
	c.logger.Error("camera unavailable", "kind", KindCameraUnavailable, "error", err)
}

func (c *Controller) disappear() {
	c.st.visible = false
	if err := c.deps.Device.Stop(); err != nil {
		c.logger.Warn("stop camera failed", "error", err)
	}
	if c.st.locked {
		c.logger.Info("cycle abandoned", "cycle", c.st.cycleID, "stage", c.st.stage)
	}
	c.endCycle()
	c.st.running = false
	c.st.prompt = nil
	c.st.lastError = ""
}

func (c *Controller) reconfigure(cfg camera.Config) error {
	c.config.Camera = cfg
	if !c.st.running {
		return nil
	}
	if err := c.deps.Device.Stop(); err != nil {
		c.logger.Warn("stop camera failed", "error", err)
	}
	c.st.running = false
	return c.startCamera()
}

func (c *Controller) tap() error {
	if c.st.locked {
		c.logger.Debug("tap ignored", "cycle", c.st.cycleID, "stage", c.st.stage)
		return ErrBusy
	}
	if !c.st.visible {
		return ErrNotVisible
	}
	if !c.st.running {
		return camera.ErrNotRunning
	}

	c.st.locked = true
	c.st.busy = true
	c.st.stage = StageCapturing
	c.st.cycleID = uuid.NewString()
	c.st.cycles++
	c.st.lastError = ""
	c.cycleCtx, c.cycleCancel = context.WithCancel(c.runCtx)

	id, flash := c.st.cycleID, c.st.flash
	c.logger.Info("capture started", "cycle", id, "flash", flash)
	c.armTimer(id, StageCapturing, c.config.CaptureTimeout)

	c.deps.Device.Capture(flash, func(p camera.Photo, err error) {
		c.post(captured{cycle: id, photo: p, err: err})
	})
	return nil
}

func (c *Controller) onCaptured(ev captured) {
	if !c.current(ev.cycle, StageCapturing) {
		return
	}
	if ev.err == nil && ev.photo.Empty() {
		ev.err = camera.WrapCapture(errors.New("empty photo"))
	}
	if ev.err != nil {
		c.fail(KindCaptureFailed, ev.err)
		return
	}

	c.st.photo = ev.photo
	c.st.stage = StageClassifying
	c.armTimer(ev.cycle, StageClassifying, c.config.ClassifyTimeout)

	ctx, cancel := context.WithTimeout(c.cycleCtx, c.config.ClassifyTimeout)
	data, id := ev.photo.Data, ev.cycle
	go func() {
		defer cancel()
		obs, err := c.deps.Classifier.Classify(ctx, data)
		c.post(classified{cycle: id, obs: obs, err: err})
	}()
}

func (c *Controller) onClassified(ev classified) {
	if !c.current(ev.cycle, StageClassifying) {
		return
	}
	if ev.err != nil {
		c.fail(KindInferenceFailed, inferenceError(ev.err))
		return
	}

	v := verdict.Interpret(ev.obs)
	c.st.verdict = &v
	c.st.identification = v.Identification()
	c.st.confidence = v.ConfidenceText()

	attrs := []any{"cycle", ev.cycle, "verdict", v.Kind, "confidence", v.Confidence}
	if len(ev.obs) > 0 {
		attrs = append(attrs, "top_label", ev.obs[0].Label)
	}
	c.logger.Info("classified", attrs...)

	c.st.stage = StageSpeaking
	c.armTimer(ev.cycle, StageSpeaking, c.config.SpeakTimeout)

	ctx, cancel := context.WithTimeout(c.cycleCtx, c.config.SpeakTimeout)
	id := ev.cycle
	c.deps.Speaker.Speak(ctx, v.Speech(), func(err error) {
		cancel()
		c.post(spoken{cycle: id, err: err})
	})
}

func (c *Controller) onSpoken(ev spoken) {
	if !c.current(ev.cycle, StageSpeaking) {
		return
	}
	if ev.err != nil {
		c.logger.Warn("speech failed", "kind", KindSpeechFailed, "cycle", ev.cycle, "error", ev.err)
	}
	c.logger.Info("cycle complete", "cycle", ev.cycle)
	c.endCycle()
}

func (c *Controller) onTimeout(ev stageTimeout) {
	if !c.current(ev.cycle, ev.stage) {
		return
	}
	err := fmt.Errorf("%s timed out: %w", ev.stage, context.DeadlineExceeded)

	switch ev.stage {
	case StageCapturing:
		c.fail(KindCaptureFailed, camera.WrapCapture(err))
	case StageClassifying:
		c.fail(KindInferenceFailed, inferenceError(err))
	case StageSpeaking:
		c.logger.Warn("speech failed", "kind", KindSpeechFailed, "cycle", ev.cycle, "error", err)
		c.endCycle()
	}
}

func (c *Controller) current(cycle string, stage Stage) bool {
	return c.st.locked && c.st.cycleID == cycle && c.st.stage == stage
}

// fail ends the cycle with the error state shown and nothing spoken.
func (c *Controller) fail(kind string, err error) {
	c.logger.Error("cycle failed",
		"kind", kind,
		"cycle", c.st.cycleID,
		"stage", c.st.stage,
		"error", err,
	)
	c.st.identification = TextError
	c.st.confidence = ""
	c.st.verdict = nil
	c.st.lastError = err.Error()
	c.endCycle()
}

func (c *Controller) endCycle() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cycleCancel != nil {
		c.cycleCancel()
		c.cycleCancel = nil
	}
	c.st.locked = false
	c.st.busy = false
	c.st.stage = StageIdle
}

func (c *Controller) armTimer(cycle string, stage Stage, d time.Duration) {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if d <= 0 {
		return
	}
	c.timer = time.AfterFunc(d, func() {
		c.post(stageTimeout{cycle: cycle, stage: stage})
	})
}

func (c *Controller) shutdown() {
	c.endCycle()
	if c.st.running {
		if err := c.deps.Device.Stop(); err != nil {
			c.logger.Warn("stop camera failed", "error", err)
		}
		c.st.running = false
	}
	for _, ch := range c.pendingAppear {
		c.respond(ch, reply{err: ErrStopped})
	}
	c.pendingAppear = nil
	c.publish()
	c.flush()
	c.logger.Info("controller stopped")
}

func inferenceError(err error) error {
	if errors.Is(err, classify.ErrInferenceFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", classify.ErrInferenceFailed, err)
}
