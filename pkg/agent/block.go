package agent

// BlockType discriminates the content block union.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockThinking   BlockType = "thinking"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// Block is one content block inside a message. Exactly the fields for its
// Type are set; the rest stay zero and are omitted from JSON.
type Block struct {
	Type BlockType `json:"type"`

	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`

	ToolID    string         `json:"tool_id,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
	ToolInput map[string]any `json:"tool_input,omitempty"`

	ToolResult string `json:"tool_result,omitempty"`
}

func TextBlock(text string) Block {
	return Block{Type: BlockText, Text: text}
}

func ThinkingBlock(thinking string) Block {
	return Block{Type: BlockThinking, Thinking: thinking}
}

func ToolUseBlock(id, name string, input map[string]any) Block {
	return Block{Type: BlockToolUse, ToolID: id, ToolName: name, ToolInput: input}
}

func ToolResultBlock(id, name, result string) Block {
	return Block{Type: BlockToolResult, ToolID: id, ToolName: name, ToolResult: result}
}
