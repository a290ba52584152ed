package format

import (
	"unicode/utf8"

	"github.com/arborly/reagent/packages/agent/types"
)

// TokenCounter estimates the token cost of a formatted wire message. Hosts
// that already depend on a model-specific tokenizer can supply one; WordCountTokenCounter
// is the module's own dependency-free fallback.
type TokenCounter interface {
	Count(wm WireMessage) int
}

// perMessageOverhead approximates the fixed per-message framing cost
// (role/name/separators) that most chat-completions tokenizers charge on
// top of content, so truncation doesn't undercount short messages.
const perMessageOverhead = 4

// WordCountTokenCounter estimates tokens as roughly one token per four
// characters of formatted content, the common rule-of-thumb approximation
// used when no provider-specific tokenizer is available.
type WordCountTokenCounter struct{}

func (WordCountTokenCounter) Count(wm WireMessage) int {
	n := perMessageOverhead
	switch content := wm.Content.(type) {
	case string:
		n += runeTokens(content)
	case []WireContentEntry:
		for _, e := range content {
			n += runeTokens(e.Text)
		}
	}
	for _, tc := range wm.ToolCalls {
		n += runeTokens(tc.Function.Name) + runeTokens(tc.Function.Arguments)
	}
	return n
}

func runeTokens(s string) int {
	if s == "" {
		return 0
	}
	return (utf8.RuneCountInString(s) + 3) / 4
}

// Truncate applies spec.md §4.1's optional token-driven truncation: it
// formats systemPrompt plus messages with f, counts the resulting wire
// messages with counter, and repeatedly drops the oldest non-system Msg and
// reformats until the counted total is within tokenCap, or only system
// messages remain.
func Truncate(f Formatter, systemPrompt string, messages []types.Msg, counter TokenCounter, tokenCap int) []WireMessage {
	remaining := append([]types.Msg(nil), messages...)
	for {
		wire := f.Format(systemPrompt, remaining)
		if total(wire, counter) <= tokenCap {
			return wire
		}
		idx := firstNonSystem(remaining)
		if idx == -1 {
			return wire
		}
		remaining = append(remaining[:idx:idx], remaining[idx+1:]...)
	}
}

func total(wire []WireMessage, counter TokenCounter) int {
	sum := 0
	for _, wm := range wire {
		sum += counter.Count(wm)
	}
	return sum
}

func firstNonSystem(messages []types.Msg) int {
	for i, m := range messages {
		if m.Role() != types.RoleSystem {
			return i
		}
	}
	return -1
}
