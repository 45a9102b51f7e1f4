package agent

import "strings"

// Role of a message in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// InterruptNotice is appended to the conversation when a run is cut off so
// the model can acknowledge the interruption on the next turn. History
// reconstruction filters it out.
const InterruptNotice = "I noticed that you have interrupted me"

// Msg is one conversation message as a sequence of content blocks.
type Msg struct {
	Role   string  `json:"role"`
	Blocks []Block `json:"blocks"`
}

func UserMsg(text string) Msg {
	return Msg{Role: RoleUser, Blocks: []Block{TextBlock(text)}}
}

func SystemMsg(text string) Msg {
	return Msg{Role: RoleSystem, Blocks: []Block{TextBlock(text)}}
}

// Text concatenates the message's text blocks.
func (m Msg) Text() string {
	var sb strings.Builder
	for _, b := range m.Blocks {
		if b.Type == BlockText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// IsInterruptNotice reports whether the message is the synthetic notice
// appended when a run was interrupted.
func (m Msg) IsInterruptNotice() bool {
	return m.Role == RoleUser && strings.Contains(m.Text(), InterruptNotice)
}
