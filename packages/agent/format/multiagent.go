package format

import (
	"fmt"
	"strings"

	"github.com/arborly/reagent/packages/agent/types"
)

// MultiAgentFormatter collapses every non-tool turn into one synthetic user
// message wrapped in <history>…</history>, one line per turn, and emits
// ToolUse/ToolResult turns individually, in order, after that collapsed
// message (spec.md §4.1 "Multi-agent formatter"). It is the wire shape used when a
// single model stands in for several named participants.
type MultiAgentFormatter struct {
	providerName string
}

// NewMultiAgentFormatter returns a MultiAgentFormatter labeled providerName.
func NewMultiAgentFormatter(providerName string) *MultiAgentFormatter {
	return &MultiAgentFormatter{providerName: providerName}
}

func (f *MultiAgentFormatter) Capabilities() Capabilities {
	return Capabilities{
		ProviderName:        f.providerName,
		SupportsToolAPI:     true,
		SupportsMultiAgent:  true,
		SupportsVision:      true,
		SupportedBlockKinds: openAICompatibleBlockKinds,
	}
}

func (f *MultiAgentFormatter) Format(systemPrompt string, messages []types.Msg) []WireMessage {
	out := make([]WireMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, WireMessage{Role: "system", Content: systemPrompt})
	}

	var window []WireContentEntry
	var lines []string

	flushLines := func() {
		if len(lines) == 0 {
			return
		}
		window = append(window, textEntry(strings.Join(lines, "\n")))
		lines = nil
	}
	flushWindow := func() {
		flushLines()
		if len(window) == 0 {
			return
		}
		wrapped := wrapHistory(window)
		out = append(out, WireMessage{Role: "user", Content: collapseAllText(wrapped)})
		window = nil
	}

	var toolTurns []WireMessage
	for _, msg := range messages {
		switch msg.Content().(type) {
		case types.ToolUseContent, types.ToolResultContent:
			toolTurns = append(toolTurns, formatStandaloneMsg(msg))
		case types.ImageContent, types.AudioContent, types.VideoContent:
			// Media blocks flush the running text, then take their own
			// content entry, then accumulation resumes for later turns.
			flushLines()
			window = append(window, entryFor(msg.Content()))
		default:
			lines = append(lines, historyLine(msg))
		}
	}
	flushWindow()
	out = append(out, toolTurns...)

	return out
}

func historyLine(msg types.Msg) string {
	return fmt.Sprintf("%s %s: %s", displayRole(msg.Role()), msg.Name(), types.TextOf(msg.Content()))
}

// wrapHistory adds the <history> open tag to the first text entry and the
// </history> close tag to the last text entry in a collapsed window. A
// window that starts or ends on a media entry gets a dedicated tag-only text
// entry instead, so the delimiters are always present as their own text.
func wrapHistory(entries []WireContentEntry) []WireContentEntry {
	firstText, lastText := -1, -1
	if entries[0].Type == "text" {
		firstText = 0
	}
	if entries[len(entries)-1].Type == "text" {
		lastText = len(entries) - 1
	}

	out := make([]WireContentEntry, len(entries))
	copy(out, entries)

	if firstText == -1 {
		prefix := []WireContentEntry{textEntry("<history>")}
		out = append(prefix, out...)
	} else {
		out[firstText].Text = "<history>\n" + out[firstText].Text
	}

	if lastText == -1 {
		out = append(out, textEntry("</history>"))
	} else {
		idx := lastText
		if firstText == -1 {
			idx++
		}
		out[idx].Text = out[idx].Text + "\n</history>"
	}

	return out
}
