// Package types defines the message and content-block model shared by every
// other package: the formatter, the model adapters, the accumulator, the
// toolchain, and the ReAct executor all exchange values of these types.
package types

// ContentBlock is the closed tagged variant carried by a Msg. Kind reports
// which concrete block a value is without a type switch at every call site.
type ContentBlock interface {
	Kind() string
}

const (
	KindText       = "text"
	KindThinking   = "thinking"
	KindToolUse    = "tool_use"
	KindToolResult = "tool_result"
	KindImage      = "image"
	KindAudio      = "audio"
	KindVideo      = "video"
)

// TextContent is plain assistant/user/system text.
type TextContent struct {
	Text string
}

func (TextContent) Kind() string { return KindText }

// ThinkingContent is the model's reasoning commentary. It is never fed back
// to the model as a tool argument and is dropped from the final reply
// aggregated by the ReAct executor, though it is still visible on the stream.
type ThinkingContent struct {
	Text string
}

func (ThinkingContent) Kind() string { return KindThinking }

// ToolUseContent is a pending or completed tool invocation. Raw carries the
// still-unparsed argument fragment while the accumulator is assembling a
// streamed call; Input is the parsed object once the call is complete.
type ToolUseContent struct {
	ID    string
	Name  string
	Input map[string]any
	Raw   string
}

func (ToolUseContent) Kind() string { return KindToolUse }

// ToolResultContent closes out a ToolUseContent. ID must equal the
// originating ToolUseContent's ID.
type ToolResultContent struct {
	ID     string
	Name   string
	Output ContentBlock
}

func (ToolResultContent) Kind() string { return KindToolResult }

// MediaSource is either a bare URL or inline base64 data, never both.
type MediaSource struct {
	URL       string
	MediaType string
	Data      string
}

// IsInline reports whether the source carries base64 data rather than a URL.
func (s MediaSource) IsInline() bool { return s.Data != "" }

type ImageContent struct{ Source MediaSource }

func (ImageContent) Kind() string { return KindImage }

type AudioContent struct{ Source MediaSource }

func (AudioContent) Kind() string { return KindAudio }

type VideoContent struct{ Source MediaSource }

func (VideoContent) Kind() string { return KindVideo }

// TextOf best-effort extracts a textual representation from any ContentBlock.
// Used by the formatter's multi-agent history collapse and by error paths
// that need a string no matter what kind of block they were handed.
func TextOf(block ContentBlock) string {
	switch b := block.(type) {
	case TextContent:
		return b.Text
	case ThinkingContent:
		return b.Text
	case ToolUseContent:
		if b.Raw != "" {
			return b.Raw
		}
		return ""
	case ToolResultContent:
		return TextOf(b.Output)
	case ImageContent:
		return mediaDescription("image", b.Source)
	case AudioContent:
		return mediaDescription("audio", b.Source)
	case VideoContent:
		return mediaDescription("video", b.Source)
	default:
		return ""
	}
}

func mediaDescription(kind string, src MediaSource) string {
	if src.IsInline() {
		return "[" + kind + ": inline " + src.MediaType + "]"
	}
	return "[" + kind + ": " + src.URL + "]"
}
