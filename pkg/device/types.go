package device

// State is the washer's observable state. IsRunning and IsPaused each
// imply On when the state is reached through transitions.
type State struct {
	On        bool `json:"on"`
	IsRunning bool `json:"isRunning"`
	IsPaused  bool `json:"isPaused"`
}

// Status names the run state printed on every mutation.
func (s State) Status() string {
	switch {
	case !s.On:
		return "OFF"
	case s.IsPaused:
		return "PAUSED"
	case s.IsRunning:
		return "RUNNING"
	default:
		return "STOPPED"
	}
}

// Patch is a partial state overwrite. Nil fields are left unchanged.
type Patch struct {
	On        *bool `json:"on,omitempty"`
	IsRunning *bool `json:"isRunning,omitempty"`
	IsPaused  *bool `json:"isPaused,omitempty"`
}

// Transition names
const (
	TransitionOn     = "on"
	TransitionOff    = "off"
	TransitionStart  = "start"
	TransitionStop   = "stop"
	TransitionPause  = "pause"
	TransitionResume = "resume"
)

// Transitions lists every named transition in a stable order.
var Transitions = []string{
	TransitionOn,
	TransitionOff,
	TransitionStart,
	TransitionStop,
	TransitionPause,
	TransitionResume,
}
