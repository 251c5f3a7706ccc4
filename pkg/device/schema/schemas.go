package schema

import (
	_ "embed"
	"encoding/json"
)

var (
	//go:embed washer_state.json
	washerState []byte

	//go:embed washer_patch.json
	washerPatch []byte
)

// WasherState is the full washer state body posted by the simulator's
// report push.
var WasherState = json.RawMessage(washerState)

// WasherPatch is the partial override body accepted by the simulator.
var WasherPatch = json.RawMessage(washerPatch)
