package format

import "encoding/json"

// serializeInput renders a tool-use input map as the JSON-object string the
// wire format expects (spec.md §4.1 "Tool argument serialization"). Go map
// iteration has no stable order, so encoding/json's built-in key sort stands
// in for "iteration order": it is deterministic, which is the property the
// invariant actually needs, and re-serializing the same map always produces
// the same bytes.
func serializeInput(input map[string]any) string {
	if len(input) == 0 {
		return "{}"
	}
	b, err := json.Marshal(input)
	if err != nil {
		return "{}"
	}
	return string(b)
}
