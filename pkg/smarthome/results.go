package smarthome

import "maps"

// Outcome is the tagged result of running one command set on one device.
type Outcome struct {
	Set int
	ID  string
	Err error
}

// GroupOutcomes folds outcomes into response groups: per command set, one
// SUCCESS group carrying the set's merged states and one ERROR group per
// error code. Groups without ids are omitted.
func GroupOutcomes(sets []CommandSet, outcomes []Outcome) []CommandResult {
	results := []CommandResult{}
	for si, set := range sets {
		success := CommandResult{IDs: []string{}, Status: StatusSuccess, States: SuccessStates(set.Execution)}
		var failures []CommandResult
		byCode := make(map[string]int)

		for _, o := range outcomes {
			if o.Set != si {
				continue
			}
			if o.Err == nil {
				success.IDs = append(success.IDs, o.ID)
				continue
			}
			code := ErrorCode(o.Err)
			idx, ok := byCode[code]
			if !ok {
				idx = len(failures)
				byCode[code] = idx
				failures = append(failures, CommandResult{Status: StatusError, ErrorCode: code})
			}
			failures[idx].IDs = append(failures[idx].IDs, o.ID)
		}

		if len(success.IDs) > 0 {
			results = append(results, success)
		}
		results = append(results, failures...)
	}
	return results
}

// SuccessStates merges the state fragments of every parseable execution
// over {online: true}.
func SuccessStates(execs []Execution) map[string]any {
	states := map[string]any{"online": true}
	for _, e := range execs {
		cmd, err := ParseExecution(e)
		if err != nil {
			continue
		}
		maps.Copy(states, cmd.States())
	}
	return states
}

// Outcomes lays out one outcome slot per device of every command set.
func Outcomes(sets []CommandSet) []Outcome {
	var total int
	for _, set := range sets {
		total += len(set.Devices)
	}
	outcomes := make([]Outcome, 0, total)
	for si, set := range sets {
		for _, ref := range set.Devices {
			outcomes = append(outcomes, Outcome{Set: si, ID: ref.ID})
		}
	}
	return outcomes
}
