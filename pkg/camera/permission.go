package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Authorization is the camera permission state.
type Authorization int

const (
	NotDetermined Authorization = iota
	Authorized
	Denied
)

// String implements fmt.Stringer.
func (a Authorization) String() string {
	switch a {
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	default:
		return "not_determined"
	}
}

// MarshalText encodes the state for JSON snapshots.
func (a Authorization) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Authorizer is the permission capability.
type Authorizer interface {
	// Status returns the current permission state without prompting.
	Status() Authorization

	// Request asks for access if it has not been decided yet and returns
	// the resulting state.
	Request(ctx context.Context) (Authorization, error)
}

// DeviceAuthorizer derives permission from whether this process can open
// the V4L2 node. Linux has no consent prompt, so it never reports
// NotDetermined and Request only re-checks.
type DeviceAuthorizer struct {
	Path string

	// Session, when set, supplies the device path on every check so a
	// device change is followed.
	Session *Session
}

// NewDeviceAuthorizer returns an authorizer for a fixed device.
func NewDeviceAuthorizer(cfg Config) *DeviceAuthorizer {
	return &DeviceAuthorizer{Path: cfg.DevicePath()}
}

// NewSessionAuthorizer returns an authorizer that checks whichever device
// the session is currently configured for.
func NewSessionAuthorizer(s *Session) *DeviceAuthorizer {
	return &DeviceAuthorizer{Session: s}
}

// DevicePath returns the node the next check will open.
func (a *DeviceAuthorizer) DevicePath() string {
	if a.Session != nil {
		return a.Session.Config().DevicePath()
	}
	return a.Path
}

// Status opens and closes the device node. A missing node is reported as
// Authorized; Configure then fails with ErrCameraUnavailable.
func (a *DeviceAuthorizer) Status() Authorization {
	f, err := os.OpenFile(a.DevicePath(), os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return Denied
		}
		return Authorized
	}
	f.Close()
	return Authorized
}

// Request re-checks the device node.
func (a *DeviceAuthorizer) Request(ctx context.Context) (Authorization, error) {
	if err := ctx.Err(); err != nil {
		return NotDetermined, err
	}
	return a.Status(), nil
}

// CheckDevice reports ErrCameraUnavailable or ErrPermissionDenied for path.
func CheckDevice(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return fmt.Errorf("%w: %s", ErrCameraUnavailable, path)
	}
	if info.Mode()&os.ModeDevice == 0 {
		return fmt.Errorf("%w: %s is not a device", ErrCameraUnavailable, path)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	return f.Close()
}

// Settings prompt shown when access has been denied.
const (
	PromptTitle   = "StrawberryOrNah Would Like To Access the Camera"
	PromptMessage = "StrawberryOrNah needs camera access to take photos and identify objects."
	PromptAction  = "Open Settings"
)

// SettingsOpener is the settings-redirect capability: it opens the host's
// permission settings for this application.
type SettingsOpener interface {
	Open(ctx context.Context) error
}

// DefaultSettingsCommand opens the GNOME privacy panel.
var DefaultSettingsCommand = []string{"gnome-control-center", "privacy"}

// CommandOpener runs a host command to show the settings screen.
type CommandOpener struct {
	Command []string
}

// NewCommandOpener returns an opener for cmd, or the default command
// when cmd is empty.
func NewCommandOpener(cmd []string) *CommandOpener {
	if len(cmd) == 0 {
		cmd = DefaultSettingsCommand
	}
	return &CommandOpener{Command: cmd}
}

// Open starts the command and waits for it to exit.
func (o *CommandOpener) Open(ctx context.Context) error {
	if len(o.Command) == 0 {
		return errors.New("camera: no settings command configured")
	}
	cmd := exec.CommandContext(ctx, o.Command[0], o.Command[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("open settings: %w: %s", err, out)
	}
	return nil
}
