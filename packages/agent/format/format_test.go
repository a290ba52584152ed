package format_test

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborly/reagent/packages/agent/format"
	"github.com/arborly/reagent/packages/agent/types"
)

func TestSingleChatFormatterTextTurn(t *testing.T) {
	f := format.NewSingleChatFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "", types.TextContent{Text: "Hello"}),
	}
	wire := f.Format("", messages)
	require.Len(t, wire, 1)
	assert.Equal(t, "user", wire[0].Role)
	assert.Equal(t, "Hello", wire[0].Content)
}

func TestSingleChatFormatterSystemPrompt(t *testing.T) {
	f := format.NewSingleChatFormatter("test-provider")
	wire := f.Format("be helpful", nil)
	require.Len(t, wire, 1)
	assert.Equal(t, "system", wire[0].Role)
	assert.Equal(t, "be helpful", wire[0].Content)
}

func TestSingleChatFormatterToolUseCarriesEmptyTextPlaceholder(t *testing.T) {
	f := format.NewSingleChatFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsgWithID("call_1", types.RoleAssistant, "", types.ToolUseContent{
			ID: "call_1", Name: "get_time", Input: map[string]any{"zone": "UTC"},
		}),
	}
	wire := f.Format("", messages)
	require.Len(t, wire, 1)
	assert.Equal(t, "", wire[0].Content)
	require.Len(t, wire[0].ToolCalls, 1)
	assert.Equal(t, "call_1", wire[0].ToolCalls[0].ID)
	assert.Equal(t, "get_time", wire[0].ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"zone":"UTC"}`, wire[0].ToolCalls[0].Function.Arguments)
}

func TestSingleChatFormatterToolResultCarriesCallID(t *testing.T) {
	f := format.NewSingleChatFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsgWithID("call_1", types.RoleTool, "get_time", types.ToolResultContent{
			ID: "call_1", Name: "get_time", Output: types.TextContent{Text: "12:00:00"},
		}),
	}
	wire := f.Format("", messages)
	require.Len(t, wire, 1)
	assert.Equal(t, "tool", wire[0].Role)
	assert.Equal(t, "call_1", wire[0].ToolCallID)
	assert.Equal(t, "12:00:00", wire[0].Content)
}

func TestSingleChatFormatterEmptyInputSerializesToEmptyObject(t *testing.T) {
	f := format.NewSingleChatFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsg(types.RoleAssistant, "", types.ToolUseContent{ID: "c1", Name: "ping"}),
	}
	wire := f.Format("", messages)
	require.Len(t, wire, 1)
	assert.Equal(t, "{}", wire[0].ToolCalls[0].Function.Arguments)
}

// S6 — Multi-agent collapse (spec.md §8).
func TestMultiAgentFormatterCollapsesHistory(t *testing.T) {
	f := format.NewMultiAgentFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "Alice", types.TextContent{Text: "Hi"}),
		types.NewMsg(types.RoleAssistant, "Bot", types.TextContent{Text: "Hello"}),
		types.NewMsg(types.RoleUser, "Alice", types.TextContent{Text: "Bye"}),
	}
	wire := f.Format("", messages)
	require.Len(t, wire, 1)
	assert.Equal(t, "user", wire[0].Role)
	assert.Equal(t, "<history>\nUser Alice: Hi\nAssistant Bot: Hello\nUser Alice: Bye\n</history>", wire[0].Content)
}

func TestMultiAgentFormatterHistoryLineShape(t *testing.T) {
	f := format.NewMultiAgentFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "Alice", types.TextContent{Text: "Hi"}),
		types.NewMsg(types.RoleSystem, "sys", types.TextContent{Text: "note"}),
	}
	wire := f.Format("", messages)
	require.Len(t, wire, 1)
	content := wire[0].Content.(string)
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(content, "<history>\n"), "\n</history>"), "\n")
	linePattern := regexp.MustCompile(`^(User|Assistant|System|Tool) .*: .*$`)
	for _, line := range lines {
		assert.Regexp(t, linePattern, line)
	}
}

func TestMultiAgentFormatterEmitsToolTurnsIndividuallyAfterCollapse(t *testing.T) {
	f := format.NewMultiAgentFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "Alice", types.TextContent{Text: "What time is it?"}),
		types.NewMsgWithID("call_1", types.RoleAssistant, "", types.ToolUseContent{ID: "call_1", Name: "get_time", Input: map[string]any{"zone": "UTC"}}),
		types.NewMsgWithID("call_1", types.RoleTool, "get_time", types.ToolResultContent{ID: "call_1", Output: types.TextContent{Text: "12:00"}}),
		types.NewMsg(types.RoleAssistant, "Bot", types.TextContent{Text: "It is 12:00."}),
	}
	wire := f.Format("", messages)

	require.Len(t, wire, 3)
	assert.Equal(t, "user", wire[0].Role)
	assert.Contains(t, wire[0].Content, "<history>")

	assert.Equal(t, "assistant", wire[1].Role)
	require.Len(t, wire[1].ToolCalls, 1)
	assert.Equal(t, "call_1", wire[1].ToolCalls[0].ID)

	assert.Equal(t, "tool", wire[2].Role)
	assert.Equal(t, "call_1", wire[2].ToolCallID)
}

// Invariant 6 — all-text collapse.
func TestAllTextContentCollapsesToJoinedString(t *testing.T) {
	f := format.NewSingleChatFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "", types.TextContent{Text: "line one"}),
	}
	wire := f.Format("", messages)
	_, isString := wire[0].Content.(string)
	assert.True(t, isString)
}

// Mixed content (image) must remain a list, not collapse to a string.
func TestMixedContentStaysAsList(t *testing.T) {
	f := format.NewMultiAgentFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "Alice", types.TextContent{Text: "look"}),
		types.NewMsg(types.RoleUser, "Alice", types.ImageContent{Source: types.MediaSource{URL: "http://x/y.png"}}),
		types.NewMsg(types.RoleUser, "Alice", types.TextContent{Text: "what is it"}),
	}
	wire := f.Format("", messages)
	require.Len(t, wire, 1)
	entries, ok := wire[0].Content.([]format.WireContentEntry)
	require.True(t, ok, "mixed content must remain a list")
	assert.Equal(t, "image", entries[1].Type)
}

// spec.md §4.1: a bare local path that exists on disk is rewritten to
// file://absolute.
func TestImageBlockNormalizesExistingLocalPathToFileURL(t *testing.T) {
	f := format.NewSingleChatFormatter("test-provider")
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("fake"), 0o644))

	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "", types.ImageContent{Source: types.MediaSource{URL: path}}),
	}
	wire := f.Format("", messages)
	entries, ok := wire[0].Content.([]format.WireContentEntry)
	require.True(t, ok)
	assert.Equal(t, "file://"+path, entries[0].ImageURL)
}

// A path that doesn't exist on disk is left as-is rather than rewritten.
func TestImageBlockLeavesNonexistentLocalPathUnchanged(t *testing.T) {
	f := format.NewSingleChatFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "", types.ImageContent{Source: types.MediaSource{URL: "/no/such/file.png"}}),
	}
	wire := f.Format("", messages)
	entries, ok := wire[0].Content.([]format.WireContentEntry)
	require.True(t, ok)
	assert.Equal(t, "/no/such/file.png", entries[0].ImageURL)
}

// An http(s) URL is never rewritten even if a same-named local file exists.
func TestImageBlockLeavesRemoteURLUnchanged(t *testing.T) {
	f := format.NewSingleChatFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "", types.ImageContent{Source: types.MediaSource{URL: "https://example.com/x.png"}}),
	}
	wire := f.Format("", messages)
	entries, ok := wire[0].Content.([]format.WireContentEntry)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/x.png", entries[0].ImageURL)
}

// Audio and video blocks get their own structured content entry, not a text
// placeholder.
func TestAudioAndVideoBlocksProduceStructuredEntries(t *testing.T) {
	f := format.NewSingleChatFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "", types.AudioContent{Source: types.MediaSource{URL: "https://example.com/a.mp3"}}),
		types.NewMsg(types.RoleUser, "", types.VideoContent{Source: types.MediaSource{URL: "https://example.com/v.mp4"}}),
	}
	wire := f.Format("", messages)
	require.Len(t, wire, 2)

	audioEntries, ok := wire[0].Content.([]format.WireContentEntry)
	require.True(t, ok)
	assert.Equal(t, "audio", audioEntries[0].Type)
	assert.Equal(t, "https://example.com/a.mp3", audioEntries[0].AudioURL)

	videoEntries, ok := wire[1].Content.([]format.WireContentEntry)
	require.True(t, ok)
	assert.Equal(t, "video", videoEntries[0].Type)
	assert.Equal(t, "https://example.com/v.mp4", videoEntries[0].VideoURL)
}

func TestCapabilitiesDescriptor(t *testing.T) {
	single := format.NewSingleChatFormatter("openai")
	multi := format.NewMultiAgentFormatter("openai")

	assert.False(t, single.Capabilities().SupportsMultiAgent)
	assert.True(t, multi.Capabilities().SupportsMultiAgent)
	assert.Equal(t, "openai", single.Capabilities().ProviderName)
}

func TestTruncateDropsOldestNonSystemMessage(t *testing.T) {
	f := format.NewSingleChatFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "", types.TextContent{Text: strings.Repeat("a", 200)}),
		types.NewMsg(types.RoleAssistant, "", types.TextContent{Text: "short"}),
	}
	wire := format.Truncate(f, "sys", messages, format.WordCountTokenCounter{}, 20)

	// Only the system message plus whatever fits under the cap remains.
	for _, wm := range wire {
		assert.NotContains(t, wm.Content, strings.Repeat("a", 200))
	}
}

func TestTruncateNeverDropsSystemMessage(t *testing.T) {
	f := format.NewSingleChatFormatter("test-provider")
	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "", types.TextContent{Text: strings.Repeat("a", 1000)}),
	}
	wire := format.Truncate(f, "must survive", messages, format.WordCountTokenCounter{}, 1)
	require.NotEmpty(t, wire)
	assert.Equal(t, "system", wire[0].Role)
	assert.Equal(t, "must survive", wire[0].Content)
}
