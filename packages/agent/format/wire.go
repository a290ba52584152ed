// Package format converts a memory-shaped list of types.Msg into the
// OpenAI-style chat-completions wire shape consumed by the model adapters.
// Two variants are provided: a single-chat formatter (one wire message per
// Msg) and a multi-agent formatter (collapsed history for non-tool turns).
package format

// WireMessage is one entry in the wire-level chat-completions messages array.
type WireMessage struct {
	Role       string        `json:"role"`
	Content    any           `json:"content,omitempty"`
	ToolCalls  []WireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

// WireContentEntry is one element of a wire message's content list, before
// the all-text post-pass has a chance to collapse it to a bare string. Image,
// audio, and video blocks each get their own URL field, matching the
// type-specific key naming chat-completions-style providers use instead of
// one shared "url" field.
type WireContentEntry struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ToolUseID string `json:"tool_use_id,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	AudioURL  string `json:"audio_url,omitempty"`
	VideoURL  string `json:"video_url,omitempty"`
}

// WireToolCall is the assistant-side announcement of a tool invocation.
type WireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function WireToolCallFunc `json:"function"`
}

// WireToolCallFunc carries the tool name and its serialized JSON arguments.
type WireToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func textEntry(text string) WireContentEntry {
	return WireContentEntry{Type: "text", Text: text}
}

// collapseAllText implements the formatter's post-pass (spec.md §4.1): a
// content list in which every entry is a bare text block is rewritten to the
// newline-joined concatenation of those texts. Mixed-kind lists are left
// alone so media entries remain addressable by the provider.
func collapseAllText(entries []WireContentEntry) any {
	if len(entries) == 0 {
		return ""
	}
	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type != "text" {
			return entries
		}
		texts = append(texts, e.Text)
	}
	joined := ""
	for i, t := range texts {
		if i > 0 {
			joined += "\n"
		}
		joined += t
	}
	return joined
}
