package resolve

import (
	"bytes"
	"encoding/json"
)

// Stage names a precision stage of the resolution pipeline.
type Stage string

// Pipeline stages in the order they run.
const (
	StagePrimary  Stage = "primary"
	StageFallback Stage = "fallback"
	StageHint     Stage = "hint"
)

// Match strategies recorded in the trace.
const (
	MatchedByResults = "results"
	MatchedByScan    = "scan"
)

// StageTrace holds the diagnostic facts of one attempted stage.
type StageTrace struct {
	Query       string      `json:"query"`
	ResultCount int         `json:"resultCount"`
	MatchedBy   string      `json:"matchedBy,omitempty"`
	MatchedLink string      `json:"matchedLink,omitempty"`
	Hint        *ParsedHint `json:"hint,omitempty"`
	Error       string      `json:"error,omitempty"`

	// Set on the fallback stage when it found no match and looked for a
	// hint source among its results.
	HintCandidate     string `json:"hintCandidate,omitempty"`
	HintCandidateLink string `json:"hintCandidateLink,omitempty"`
}

type traceEntry struct {
	stage Stage
	facts StageTrace
}

// Trace is the ordered, append-only record of the stages a resolution
// attempted. It never influences control flow.
type Trace struct {
	entries []traceEntry
}

// Add appends the facts of a completed stage.
func (t *Trace) Add(stage Stage, facts StageTrace) {
	t.entries = append(t.entries, traceEntry{stage: stage, facts: facts})
}

// Stages returns the recorded stage names in the order they ran.
func (t *Trace) Stages() []Stage {
	if t == nil {
		return nil
	}
	stages := make([]Stage, len(t.entries))
	for i, e := range t.entries {
		stages[i] = e.stage
	}
	return stages
}

// Get returns the facts recorded for a stage.
func (t *Trace) Get(stage Stage) (StageTrace, bool) {
	if t == nil {
		return StageTrace{}, false
	}
	for _, e := range t.entries {
		if e.stage == stage {
			return e.facts, true
		}
	}
	return StageTrace{}, false
}

// Len returns the number of recorded stages.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// MarshalJSON encodes the trace as an object keyed by stage name, keeping
// the order in which stages ran.
func (t *Trace) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if t != nil {
		for i, e := range t.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(string(e.stage))
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(e.facts)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
