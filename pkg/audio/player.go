// Package audio plays synthesized speech through a local playback process.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// DefaultCommand reads an encoded audio file from stdin and exits when
// playback ends.
var DefaultCommand = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-"}

// ErrEmptyAudio is returned when there is nothing to play.
var ErrEmptyAudio = errors.New("audio: empty buffer")

// Player pipes audio to an external player. One clip plays at a time;
// a new Play waits for the previous one to finish.
type Player struct {
	command []string
	logger  *slog.Logger

	// Callbacks
	OnPlaybackStart func()
	OnPlaybackEnd   func()

	playMu sync.Mutex // serializes clips

	mu      sync.Mutex
	cmd     *exec.Cmd
	playing bool
}

// NewPlayer creates a player. An empty command uses DefaultCommand.
func NewPlayer(command []string, logger *slog.Logger) *Player {
	if len(command) == 0 {
		command = DefaultCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		command: append([]string(nil), command...),
		logger:  logger.With("component", "audio.player"),
	}
}

// ParseCommand splits a command line on whitespace.
func ParseCommand(s string) []string {
	return strings.Fields(s)
}

// Command returns the configured playback command.
func (p *Player) Command() []string {
	return append([]string(nil), p.command...)
}

// Play writes data to the player's stdin and blocks until playback
// completes or ctx is cancelled.
func (p *Player) Play(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyAudio
	}

	p.playMu.Lock()
	defer p.playMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.command[0], p.command[1:]...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audio: start %s: %w", p.command[0], err)
	}

	p.mu.Lock()
	p.cmd = cmd
	p.playing = true
	p.mu.Unlock()

	if p.OnPlaybackStart != nil {
		p.OnPlaybackStart()
	}
	p.logger.Debug("playback started", "bytes", len(data))

	err := cmd.Wait()

	p.mu.Lock()
	p.cmd = nil
	p.playing = false
	p.mu.Unlock()

	if p.OnPlaybackEnd != nil {
		p.OnPlaybackEnd()
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("audio: %s: %w: %s", p.command[0], err, msg)
		}
		return fmt.Errorf("audio: %s: %w", p.command[0], err)
	}

	p.logger.Debug("playback finished")
	return nil
}

// Cancel stops any current playback immediately.
func (p *Player) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
}

// IsPlaying returns whether audio is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}
