package types

import "github.com/google/uuid"

// Role is the sender of a Msg.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Msg is immutable after construction. Every Msg carries exactly one
// ContentBlock; a turn with several blocks is several Msgs.
type Msg struct {
	id      string
	name    string
	role    Role
	content ContentBlock
}

// NewMsg constructs a Msg with a fresh, unique id.
func NewMsg(role Role, name string, content ContentBlock) Msg {
	return Msg{id: uuid.NewString(), name: name, role: role, content: content}
}

// NewMsgWithID constructs a Msg with a caller-supplied id, used when the id
// must match an existing correlation (e.g. a ToolResult msg whose id must
// equal the originating ToolUse's id).
func NewMsgWithID(id string, role Role, name string, content ContentBlock) Msg {
	return Msg{id: id, name: name, role: role, content: content}
}

func (m Msg) ID() string            { return m.id }
func (m Msg) Name() string          { return m.name }
func (m Msg) Role() Role            { return m.role }
func (m Msg) Content() ContentBlock { return m.content }

// IsToolUse reports whether m's content is a ToolUseContent, and returns it.
func (m Msg) IsToolUse() (ToolUseContent, bool) {
	tu, ok := m.content.(ToolUseContent)
	return tu, ok
}

// Text returns the text of a Text or Thinking content block, or "" otherwise.
func (m Msg) Text() string {
	switch c := m.content.(type) {
	case TextContent:
		return c.Text
	case ThinkingContent:
		return c.Text
	default:
		return ""
	}
}
