package types

import "sync"

// Memory is the ordered, append-only conversation log. It is shared between
// the agent, which writes during reason/act, and any collaborator (e.g. a
// session layer external to this module) that snapshots/restores around a
// call. Append and Snapshot are sequentially consistent: a snapshot taken
// concurrently with an append reflects either the pre- or post-append state,
// never a torn one.
type Memory struct {
	mu       sync.RWMutex
	messages []Msg
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Append adds msg to the end of the log. Memory length is monotonically
// non-decreasing except through Clear.
func (m *Memory) Append(msg Msg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// Snapshot returns a copy of the current log.
func (m *Memory) Snapshot() []Msg {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Msg, len(m.messages))
	copy(out, m.messages)
	return out
}

// Restore replaces the log with a copy of msgs.
func (m *Memory) Restore(msgs []Msg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append([]Msg(nil), msgs...)
}

// Clear empties the log.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}

// Len returns the current number of messages.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// Last returns the last message and true, or the zero Msg and false if empty.
func (m *Memory) Last() (Msg, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.messages) == 0 {
		return Msg{}, false
	}
	return m.messages[len(m.messages)-1], true
}

// SnapshotRecord is one message in the external snapshot format (spec.md
// §6). Text is canonical: non-text content types are preserved in
// ContentType but not necessarily recreated losslessly on Restore.
type SnapshotRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

// MemorySnapshot is the wire-level snapshot format: {messages: [...]}.
type MemorySnapshot struct {
	Messages []SnapshotRecord `json:"messages"`
}

var roleToSnapshot = map[Role]string{
	RoleSystem:    "SYSTEM",
	RoleUser:      "USER",
	RoleAssistant: "ASSISTANT",
	RoleTool:      "TOOL",
}

var snapshotToRole = map[string]Role{
	"SYSTEM":    RoleSystem,
	"USER":      RoleUser,
	"ASSISTANT": RoleAssistant,
	"TOOL":      RoleTool,
}

func contentTypeOf(block ContentBlock) string {
	switch block.Kind() {
	case KindText:
		return "TEXT"
	case KindThinking:
		return "THINKING"
	case KindToolUse:
		return "TOOL_USE"
	case KindToolResult:
		return "TOOL_RESULT"
	case KindImage:
		return "IMAGE"
	case KindAudio:
		return "AUDIO"
	case KindVideo:
		return "VIDEO"
	default:
		return "TEXT"
	}
}

// ExportSnapshot converts the log into the external snapshot format.
func (m *Memory) ExportSnapshot() MemorySnapshot {
	msgs := m.Snapshot()
	records := make([]SnapshotRecord, 0, len(msgs))
	for _, msg := range msgs {
		records = append(records, SnapshotRecord{
			ID:          msg.ID(),
			Name:        msg.Name(),
			Role:        roleToSnapshot[msg.Role()],
			Content:     TextOf(msg.Content()),
			ContentType: contentTypeOf(msg.Content()),
		})
	}
	return MemorySnapshot{Messages: records}
}

// RestoreSnapshot rebuilds Msgs from a MemorySnapshot. Every reconstructed
// Msg carries TextContent: the snapshot's ContentType is preserved only as
// metadata, per spec.md §6 ("text is canonical in the snapshot").
func RestoreSnapshot(snap MemorySnapshot) []Msg {
	out := make([]Msg, 0, len(snap.Messages))
	for _, rec := range snap.Messages {
		role, ok := snapshotToRole[rec.Role]
		if !ok {
			role = RoleUser
		}
		out = append(out, NewMsgWithID(rec.ID, role, rec.Name, TextContent{Text: rec.Content}))
	}
	return out
}

// LastAssistantText returns the concatenated text from the last assistant
// Msg in messages (scanning from the end), or "" if none has a Text block.
func LastAssistantText(messages []Msg) string {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role() == RoleAssistant {
			if tc, ok := msg.Content().(TextContent); ok {
				return tc.Text
			}
		}
	}
	return ""
}
