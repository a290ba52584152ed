// Package model defines the provider-agnostic streaming adapter boundary.
// Concrete adapters (packages/agent/model/openai, .../anthropic) open a
// streaming call against a real SDK and translate its wire events into
// ChatResponse chunks of types.ContentBlock.
package model

import (
	"context"

	"github.com/arborly/reagent/packages/agent/format"
	"github.com/arborly/reagent/packages/agent/types"
	"github.com/arborly/reagent/packages/stream"
)

// ToolSchema describes one registered tool for inclusion in the provider's
// tool-definitions array. Parameters is a JSON-Schema object.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// GenerateOptions recognizes the numeric knobs spec.md §4.2 lists; each maps
// one-to-one onto the matching provider option when non-nil. Both adapters
// in this module always stream; neither reads EnableThinking, and neither
// requests thinking content from the provider.
type GenerateOptions struct {
	Temperature      *float64
	TopP             *float64
	MaxTokens        *int
	FrequencyPenalty *float64
	PresencePenalty  *float64
	EnableThinking   bool
}

// Usage carries opaque token/latency counters; never used for cost
// accounting or rate-limit decisions by this module.
type Usage struct {
	InputTokens  int
	OutputTokens int
	WallSeconds  float64
}

// ChatResponse is one chunk of a streaming call. Content holds whatever
// ContentBlocks arrived since the previous chunk, in provider order. Usage
// is set only on chunks that carry it; the adapter's terminal result carries
// the last reported totals, and the react loop does not read per-chunk Usage.
type ChatResponse struct {
	ID      string
	Content []types.ContentBlock
	Usage   *Usage
}

// Adapter opens a streaming call with the given wire messages and tool
// schemas and yields a finite EventStream of ChatResponse chunks. The
// terminal result carries the final aggregated Usage, or an error that
// propagates to the caller (spec.md §6 "Model transport error").
type Adapter interface {
	Stream(ctx context.Context, wire []format.WireMessage, tools []ToolSchema, opts GenerateOptions) *stream.EventStream[ChatResponse, *Usage]
}
