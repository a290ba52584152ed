package format

import "github.com/arborly/reagent/packages/agent/types"

// Formatter converts a system prompt plus the memory-shaped message list
// into the provider wire-message list that a model adapter sends over the
// network. Format never fails: malformed or unrecognized content degrades to
// a best-effort text representation rather than returning an error.
type Formatter interface {
	Format(systemPrompt string, messages []types.Msg) []WireMessage
	Capabilities() Capabilities
}

func wireRole(role types.Role) string {
	switch role {
	case types.RoleSystem:
		return "system"
	case types.RoleUser:
		return "user"
	case types.RoleAssistant:
		return "assistant"
	case types.RoleTool:
		return "tool"
	default:
		return "user"
	}
}

// displayRole renders the role label used by the multi-agent history
// collapse, e.g. "User", "Assistant" (spec.md §4.1, invariant 7).
func displayRole(role types.Role) string {
	switch role {
	case types.RoleSystem:
		return "System"
	case types.RoleUser:
		return "User"
	case types.RoleAssistant:
		return "Assistant"
	case types.RoleTool:
		return "Tool"
	default:
		return "User"
	}
}

// formatStandaloneMsg renders one Msg as its own wire message. Both
// formatters use it verbatim for ToolUse/ToolResult turns, which are never
// folded into the multi-agent history collapse; the single-chat formatter
// also uses it for every other kind of turn.
func formatStandaloneMsg(msg types.Msg) WireMessage {
	wm := WireMessage{Role: wireRole(msg.Role())}

	switch c := msg.Content().(type) {
	case types.ToolResultContent:
		wm.Content = collapseAllText([]WireContentEntry{textEntry(types.TextOf(c.Output))})
		wm.ToolCallID = c.ID
		return wm
	case types.ToolUseContent:
		// Mandatory empty-text placeholder: some providers reject an
		// assistant tool-call message with content omitted entirely.
		wm.Content = collapseAllText([]WireContentEntry{textEntry("")})
		wm.ToolCalls = []WireToolCall{{
			ID:   c.ID,
			Type: "function",
			Function: WireToolCallFunc{
				Name:      c.Name,
				Arguments: serializeInput(c.Input),
			},
		}}
		return wm
	default:
		wm.Content = collapseAllText([]WireContentEntry{entryFor(msg.Content())})
		return wm
	}
}
