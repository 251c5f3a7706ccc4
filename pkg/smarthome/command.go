package smarthome

import (
	"encoding/json"
	"fmt"
	"math"
)

// Execution verbs
const (
	CommandOnOff              = "action.devices.commands.OnOff"
	CommandStartStop          = "action.devices.commands.StartStop"
	CommandPauseUnpause       = "action.devices.commands.PauseUnpause"
	CommandBrightnessAbsolute = "action.devices.commands.BrightnessAbsolute"
	CommandLockUnlock         = "action.devices.commands.LockUnlock"
)

// Command is a parsed execution. Exactly one of the concrete types below
// implements it per verb.
type Command interface {
	Verb() string
	// States is the state fragment reported back on success.
	States() map[string]any
}

// OnOff switches a device on or off.
type OnOff struct {
	On bool `json:"on"`
}

// StartStop starts or stops a cycle.
type StartStop struct {
	Start bool `json:"start"`
}

// PauseUnpause pauses or resumes a cycle.
type PauseUnpause struct {
	Pause bool `json:"pause"`
}

// BrightnessAbsolute sets brightness in percent.
type BrightnessAbsolute struct {
	Brightness int `json:"brightness"`
}

// LockUnlock locks or unlocks a device.
type LockUnlock struct {
	Lock bool `json:"lock"`
}

func (OnOff) Verb() string              { return CommandOnOff }
func (StartStop) Verb() string          { return CommandStartStop }
func (PauseUnpause) Verb() string       { return CommandPauseUnpause }
func (BrightnessAbsolute) Verb() string { return CommandBrightnessAbsolute }
func (LockUnlock) Verb() string         { return CommandLockUnlock }

func (c OnOff) States() map[string]any        { return map[string]any{"on": c.On} }
func (c StartStop) States() map[string]any    { return map[string]any{"isRunning": c.Start} }
func (c PauseUnpause) States() map[string]any { return map[string]any{"isPaused": c.Pause} }
func (c BrightnessAbsolute) States() map[string]any {
	return map[string]any{"brightness": c.Brightness}
}
func (c LockUnlock) States() map[string]any { return map[string]any{"isLocked": c.Lock} }

// ParseExecution decodes an execution into its typed command. Unknown verbs
// fail with ErrUnsupportedCommand; brightness outside 0..100 fails with
// ErrValueOutOfRange. Fractional brightness is rounded to the nearest percent.
func ParseExecution(e Execution) (Command, error) {
	params := e.Params
	if len(params) == 0 || string(params) == "null" {
		params = json.RawMessage(`{}`)
	}

	var (
		cmd Command
		err error
	)
	switch e.Command {
	case CommandOnOff:
		var c OnOff
		err = json.Unmarshal(params, &c)
		cmd = c
	case CommandStartStop:
		var c StartStop
		err = json.Unmarshal(params, &c)
		cmd = c
	case CommandPauseUnpause:
		var c PauseUnpause
		err = json.Unmarshal(params, &c)
		cmd = c
	case CommandBrightnessAbsolute:
		var raw struct {
			Brightness float64 `json:"brightness"`
		}
		err = json.Unmarshal(params, &raw)
		if err == nil && (raw.Brightness < 0 || raw.Brightness > 100) {
			return nil, fmt.Errorf("brightness %v: %w", raw.Brightness, ErrValueOutOfRange)
		}
		cmd = BrightnessAbsolute{Brightness: int(math.Round(raw.Brightness))}
	case CommandLockUnlock:
		var c LockUnlock
		err = json.Unmarshal(params, &c)
		cmd = c
	default:
		return nil, fmt.Errorf("execution command %q: %w", e.Command, ErrUnsupportedCommand)
	}

	if err != nil {
		return nil, fmt.Errorf("decoding %s params: %v: %w", e.Command, err, ErrInvalidRequest)
	}
	return cmd, nil
}
