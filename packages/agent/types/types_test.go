package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborly/reagent/packages/agent/types"
)

func TestContentBlockKind(t *testing.T) {
	tests := []struct {
		name     string
		block    types.ContentBlock
		expected string
	}{
		{"text", types.TextContent{Text: "hello"}, types.KindText},
		{"thinking", types.ThinkingContent{Text: "reasoning..."}, types.KindThinking},
		{"tool_use", types.ToolUseContent{ID: "1", Name: "tool"}, types.KindToolUse},
		{"tool_result", types.ToolResultContent{ID: "1", Name: "tool"}, types.KindToolResult},
		{"image", types.ImageContent{Source: types.MediaSource{URL: "http://x/y.png"}}, types.KindImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.block.Kind())
		})
	}
}

func TestMsgImmutableFields(t *testing.T) {
	msg := types.NewMsg(types.RoleUser, "alice", types.TextContent{Text: "hi"})
	assert.NotEmpty(t, msg.ID())
	assert.Equal(t, types.RoleUser, msg.Role())
	assert.Equal(t, "alice", msg.Name())
	assert.Equal(t, "hi", msg.Text())
}

func TestNewMsgWithIDPreservesCorrelation(t *testing.T) {
	toolUse := types.NewMsgWithID("call_1", types.RoleAssistant, "", types.ToolUseContent{ID: "call_1", Name: "get_time"})
	result := types.NewMsgWithID("call_1", types.RoleTool, "get_time", types.ToolResultContent{ID: "call_1", Name: "get_time", Output: types.TextContent{Text: "12:00"}})

	tu, ok := toolUse.IsToolUse()
	require.True(t, ok)
	assert.Equal(t, tu.ID, result.ID())
}

func TestMemoryAppendSnapshotRestoreClear(t *testing.T) {
	mem := types.NewMemory()
	mem.Append(types.NewMsg(types.RoleUser, "", types.TextContent{Text: "one"}))
	mem.Append(types.NewMsg(types.RoleAssistant, "", types.TextContent{Text: "two"}))

	snap := mem.Snapshot()
	require.Len(t, snap, 2)

	// Snapshot is a copy: mutating it must not affect the live memory.
	snap = append(snap, types.NewMsg(types.RoleUser, "", types.TextContent{Text: "three"}))
	assert.Equal(t, 2, mem.Len())

	mem.Restore([]types.Msg{types.NewMsg(types.RoleSystem, "", types.TextContent{Text: "restored"})})
	assert.Equal(t, 1, mem.Len())

	mem.Clear()
	assert.Equal(t, 0, mem.Len())
	_, ok := mem.Last()
	assert.False(t, ok)
}

func TestMemoryMonotonic(t *testing.T) {
	mem := types.NewMemory()
	for i := 0; i < 5; i++ {
		mem.Append(types.NewMsg(types.RoleUser, "", types.TextContent{Text: "x"}))
		assert.Equal(t, i+1, mem.Len())
	}
}

func TestSnapshotRoundTripIsTextCanonical(t *testing.T) {
	mem := types.NewMemory()
	mem.Append(types.NewMsg(types.RoleUser, "bob", types.TextContent{Text: "hello"}))
	mem.Append(types.NewMsg(types.RoleAssistant, "", types.ToolUseContent{ID: "c1", Name: "search", Input: map[string]any{"q": "go"}}))

	snap := mem.ExportSnapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "USER", snap.Messages[0].Role)
	assert.Equal(t, "TEXT", snap.Messages[0].ContentType)
	assert.Equal(t, "TOOL_USE", snap.Messages[1].ContentType)

	restored := types.RestoreSnapshot(snap)
	require.Len(t, restored, 2)
	for _, msg := range restored {
		_, isText := msg.Content().(types.TextContent)
		assert.True(t, isText, "restored content is always TextContent per spec")
	}
}

func TestLastAssistantText(t *testing.T) {
	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "", types.TextContent{Text: "q"}),
		types.NewMsg(types.RoleAssistant, "", types.TextContent{Text: "first"}),
		types.NewMsg(types.RoleTool, "", types.ToolResultContent{ID: "1", Output: types.TextContent{Text: "result"}}),
		types.NewMsg(types.RoleAssistant, "", types.TextContent{Text: "final"}),
	}
	assert.Equal(t, "final", types.LastAssistantText(messages))
}

func TestLastAssistantTextNoneFound(t *testing.T) {
	messages := []types.Msg{
		types.NewMsg(types.RoleUser, "", types.TextContent{Text: "q"}),
	}
	assert.Equal(t, "", types.LastAssistantText(messages))
}
