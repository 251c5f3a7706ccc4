package smarthome

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestGroupOutcomes(t *testing.T) {
	sets := []CommandSet{{
		Devices:   []DeviceRef{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
		Execution: []Execution{{Command: CommandOnOff, Params: json.RawMessage(`{"on":false}`)}},
	}}
	outcomes := Outcomes(sets)
	outcomes[1].Err = fmt.Errorf("x: %w", ErrInvalidCredentials)
	outcomes[2].Err = fmt.Errorf("y: %w", ErrUpstreamUnavailable)
	outcomes[3].Err = fmt.Errorf("z: %w", ErrInvalidCredentials)

	got := GroupOutcomes(sets, outcomes)
	if len(got) != 3 {
		t.Fatalf("groups: got %+v", got)
	}
	if got[0].Status != StatusSuccess || len(got[0].IDs) != 1 || got[0].States["on"] != false || got[0].States["online"] != true {
		t.Errorf("success group: got %+v", got[0])
	}
	if got[1].ErrorCode != CodeAuthFailure || len(got[1].IDs) != 2 {
		t.Errorf("auth group: got %+v", got[1])
	}
	if got[2].ErrorCode != CodeTransientError || got[2].IDs[0] != "c" {
		t.Errorf("transient group: got %+v", got[2])
	}
}

func TestGroupOutcomes_AllFailed(t *testing.T) {
	sets := []CommandSet{{Devices: []DeviceRef{{ID: "a"}}}}
	outcomes := Outcomes(sets)
	outcomes[0].Err = ErrUnsupportedCommand

	got := GroupOutcomes(sets, outcomes)
	if len(got) != 1 || got[0].Status != StatusError {
		t.Errorf("groups: got %+v", got)
	}
}
