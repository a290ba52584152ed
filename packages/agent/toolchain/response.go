package toolchain

import (
	"strings"

	"github.com/arborly/reagent/packages/agent/types"
)

// errorPrefix marks a ToolResponse as carrying an error per spec.md §4.4's
// error taxonomy: "error (single text block prefixed 'Error: ')".
const errorPrefix = "Error: "

// interruptedText is the sentinel text for a cancelled tool invocation.
const interruptedText = "Tool execution was interrupted"

// ToolResponse is what a tool call produces, the same taxonomy whether the
// call succeeded, failed, or was interrupted. Errors are data here, never
// exceptions: the ReAct loop always has a ToolResponse to append to memory.
type ToolResponse struct {
	ID            string
	Content       []types.ContentBlock
	Metadata      map[string]any
	IsStream      bool
	IsLast        bool
	IsInterrupted bool
}

// Text is a convenience constructor for a single-block text ToolResponse.
func Text(id, text string) ToolResponse {
	return ToolResponse{ID: id, Content: []types.ContentBlock{types.TextContent{Text: text}}, IsLast: true}
}

// Error builds the error-shaped ToolResponse spec.md §4.4 requires.
func Error(id, message string) ToolResponse {
	return ToolResponse{
		ID:      id,
		Content: []types.ContentBlock{types.TextContent{Text: errorPrefix + message}},
		IsLast:  true,
	}
}

// Interrupted builds the interrupted-shaped ToolResponse for a call that was
// still running when its enclosing scope was cancelled.
func Interrupted(id string) ToolResponse {
	return ToolResponse{
		ID:            id,
		Content:       []types.ContentBlock{types.TextContent{Text: interruptedText}},
		IsLast:        true,
		IsInterrupted: true,
	}
}

// IsError reports whether r carries the "Error: "-prefixed sentinel text.
func (r ToolResponse) IsError() bool {
	if len(r.Content) == 0 {
		return false
	}
	tc, ok := r.Content[0].(types.TextContent)
	return ok && strings.HasPrefix(tc.Text, errorPrefix)
}

// ToMsg folds r into the role=tool Msg the ReAct executor appends to memory,
// referencing the originating ToolUseContent by id and name.
func (r ToolResponse) ToMsg(name string) types.Msg {
	return types.NewMsgWithID(r.ID, types.RoleTool, name, types.ToolResultContent{
		ID:     r.ID,
		Name:   name,
		Output: collapse(r.Content),
	})
}

// collapse folds a content list down to the single ContentBlock that
// ToolResultContent.Output carries. A single block passes through; multiple
// blocks join their textual representation, mirroring the formatter's
// all-text collapse rule for a list content shape.
func collapse(blocks []types.ContentBlock) types.ContentBlock {
	if len(blocks) == 0 {
		return types.TextContent{}
	}
	if len(blocks) == 1 {
		return blocks[0]
	}
	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = types.TextOf(b)
	}
	return types.TextContent{Text: strings.Join(texts, "\n")}
}
