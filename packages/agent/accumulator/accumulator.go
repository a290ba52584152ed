// Package accumulator reassembles a sequence of streamed ToolUseContent
// fragments into one canonical tool call. A Reasoning phase owns exactly one
// Accumulator for the duration of a single model stream.
package accumulator

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/arborly/reagent/packages/agent/types"
)

// fallbackSeq backs synthesized ids when a finished call never received one
// from the provider. Monotonic across the process, matching spec.md's
// "tool_call_" + monotonic synthesis rule.
var fallbackSeq int64

// Accumulator merges ToolUseContent fragments emitted by a model adapter
// into a single ToolUseContent per spec.md §4.3. It is not safe for
// concurrent use: a Reasoning phase feeds it fragments from one stream in
// order, on one goroutine.
type Accumulator struct {
	toolID string
	name   string
	args   map[string]any
	raw    strings.Builder
}

// New returns an empty Accumulator ready to receive fragments.
func New() *Accumulator {
	return &Accumulator{}
}

// Feed merges one fragment's id, name, parsed input, and raw buffer per
// spec.md §4.3's merge rules. Feed never rejects a fragment; a fragment with
// no recognizable content is simply a raw-buffer append.
func (a *Accumulator) Feed(fragment types.ToolUseContent) {
	if fragment.ID != "" {
		a.toolID = fragment.ID
	}
	if fragment.Name != "" && fragment.Name != "__fragment__" {
		a.name = fragment.Name
	}
	if len(fragment.Input) > 0 {
		if a.args == nil {
			a.args = make(map[string]any, len(fragment.Input))
		}
		for k, v := range fragment.Input {
			a.args[k] = v
		}
	}
	a.raw.WriteString(fragment.Raw)
}

// Finish produces the reassembled ToolUseContent, or (nil, false) if no
// fragment ever carried a name — spec.md §4.3: "If name is unset, emit
// nothing (there was no tool call)."
func (a *Accumulator) Finish() (types.ToolUseContent, bool) {
	if a.name == "" {
		return types.ToolUseContent{}, false
	}

	input := a.args
	if len(input) == 0 {
		input = parseRawObject(a.raw.String())
	}

	id := a.toolID
	if id == "" {
		id = fmt.Sprintf("tool_call_%d", atomic.AddInt64(&fallbackSeq, 1))
	}

	return types.ToolUseContent{ID: id, Name: a.name, Input: input}, true
}

// parseRawObject best-effort parses a fully-concatenated raw argument
// buffer, returning an empty map on any failure so a malformed payload
// never blocks the reasoning loop (spec.md §6, "Accumulator parse failure").
func parseRawObject(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}
