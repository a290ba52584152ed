package format

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arborly/reagent/packages/agent/types"
)

// SingleChatFormatter maps each Msg to exactly one wire message, the shape
// most chat-completions-style providers expect for a single linear
// conversation (spec.md §4.1 "Single-chat formatter").
type SingleChatFormatter struct {
	providerName string
}

// NewSingleChatFormatter returns a SingleChatFormatter labeled providerName
// for its Capabilities descriptor.
func NewSingleChatFormatter(providerName string) *SingleChatFormatter {
	return &SingleChatFormatter{providerName: providerName}
}

func (f *SingleChatFormatter) Capabilities() Capabilities {
	return Capabilities{
		ProviderName:        f.providerName,
		SupportsToolAPI:     true,
		SupportsMultiAgent:  false,
		SupportsVision:      true,
		SupportedBlockKinds: openAICompatibleBlockKinds,
	}
}

func (f *SingleChatFormatter) Format(systemPrompt string, messages []types.Msg) []WireMessage {
	out := make([]WireMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, WireMessage{Role: "system", Content: systemPrompt})
	}
	for _, msg := range messages {
		out = append(out, formatStandaloneMsg(msg))
	}
	return out
}

func entryFor(block types.ContentBlock) WireContentEntry {
	switch b := block.(type) {
	case types.ImageContent:
		return WireContentEntry{Type: "image", ImageURL: mediaRef(b.Source)}
	case types.AudioContent:
		return WireContentEntry{Type: "audio", AudioURL: mediaRef(b.Source)}
	case types.VideoContent:
		return WireContentEntry{Type: "video", VideoURL: mediaRef(b.Source)}
	default:
		return textEntry(types.TextOf(block))
	}
}

// mediaRef renders a MediaSource as the URL a content entry carries: inline
// data as a data: URI, and a bare filesystem path that exists on disk
// rewritten to file://absolute — spec.md §4.1's "bare filesystem paths that
// exist are rewritten to file://absolute", matching the source formatter's
// normalizeMediaUrl. Any other URL (http(s), file://, data: already, or a
// path that doesn't exist locally) passes through unchanged.
func mediaRef(src types.MediaSource) string {
	if src.IsInline() {
		return "data:" + src.MediaType + ";base64," + src.Data
	}
	return normalizeMediaURL(src.URL)
}

func normalizeMediaURL(url string) string {
	if url == "" {
		return url
	}
	switch {
	case strings.HasPrefix(url, "http://"),
		strings.HasPrefix(url, "https://"),
		strings.HasPrefix(url, "file://"),
		strings.HasPrefix(url, "data:"):
		return url
	}
	abs, err := filepath.Abs(url)
	if err != nil {
		return url
	}
	if _, err := os.Stat(abs); err != nil {
		return url
	}
	return "file://" + abs
}
