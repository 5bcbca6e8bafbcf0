package screen

import (
	"github.com/teslashibe/strawberry-or-nah/pkg/camera"
	"github.com/teslashibe/strawberry-or-nah/pkg/verdict"
)

// Stage is the step a capture cycle is waiting on.
type Stage int

const (
	StageIdle Stage = iota
	StageCapturing
	StageClassifying
	StageSpeaking
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageCapturing:
		return "capturing"
	case StageClassifying:
		return "classifying"
	case StageSpeaking:
		return "speaking"
	default:
		return "idle"
	}
}

// MarshalText encodes the stage for JSON snapshots.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Prompt is the settings-redirect alert.
type Prompt struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

// SettingsPrompt is shown when camera access has been denied.
var SettingsPrompt = Prompt{
	Title:   camera.PromptTitle,
	Message: camera.PromptMessage,
	Action:  camera.PromptAction,
}

// Snapshot is a copy of the screen state.
type Snapshot struct {
	Identification string               `json:"identification"`
	Confidence     string               `json:"confidence"`
	Verdict        *verdict.Verdict     `json:"verdict,omitempty"`
	Busy           bool                 `json:"busy"`
	Stage          Stage                `json:"stage"`
	Flash          camera.FlashMode     `json:"flash"`
	FlashLabel     string               `json:"flash_label"`
	Permission     camera.Authorization `json:"permission"`
	Visible        bool                 `json:"visible"`
	CameraRunning  bool                 `json:"camera_running"`
	Prompt         *Prompt              `json:"prompt,omitempty"`
	LastError      string               `json:"last_error,omitempty"`
	CycleID        string               `json:"cycle_id,omitempty"`
	Cycles         int                  `json:"cycles"`
	HasPhoto       bool                 `json:"has_photo"`
}

// state is owned by the controller loop.
type state struct {
	identification string
	confidence     string
	verdict        *verdict.Verdict

	// locked is the UI interaction lock. busy drives the activity
	// indicator. Both are set together by Tap and cleared together when
	// the cycle ends.
	locked bool
	busy   bool
	stage  Stage

	flash      camera.FlashMode
	permission camera.Authorization
	visible    bool
	running    bool
	prompt     *Prompt
	lastError  string

	cycleID string
	cycles  int
	photo   camera.Photo
}

func (s *state) snapshot() Snapshot {
	snap := Snapshot{
		Identification: s.identification,
		Confidence:     s.confidence,
		Busy:           s.busy,
		Stage:          s.stage,
		Flash:          s.flash,
		FlashLabel:     s.flash.Label(),
		Permission:     s.permission,
		Visible:        s.visible,
		CameraRunning:  s.running,
		LastError:      s.lastError,
		CycleID:        s.cycleID,
		Cycles:         s.cycles,
		HasPhoto:       !s.photo.Empty(),
	}
	if s.verdict != nil {
		v := *s.verdict
		snap.Verdict = &v
	}
	if s.prompt != nil {
		p := *s.prompt
		snap.Prompt = &p
	}
	return snap
}
