package screen

import (
	"github.com/teslashibe/strawberry-or-nah/pkg/camera"
	"github.com/teslashibe/strawberry-or-nah/pkg/classify"
)

// event is anything the loop consumes.
type event any

type op int

const (
	opAppear op = iota
	opDisappear
	opTap
	opToggleFlash
	opDismissPrompt
	opReconfigure
)

type request struct {
	op     op
	camera camera.Config
	reply  chan reply
}

type reply struct {
	flash camera.FlashMode
	err   error
}

type permissionResolved struct {
	status camera.Authorization
	err    error
}

type captured struct {
	cycle string
	photo camera.Photo
	err   error
}

type classified struct {
	cycle string
	obs   []classify.Observation
	err   error
}

type spoken struct {
	cycle string
	err   error
}

type stageTimeout struct {
	cycle string
	stage Stage
}
