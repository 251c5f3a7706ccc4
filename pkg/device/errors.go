package device

import "errors"

var (
	// ErrUnknownTransition indicates a transition name outside on/off/start/stop/pause/resume
	ErrUnknownTransition = errors.New("unknown transition")
)
