package dto

import (
	"time"

	"github.com/google/uuid"
)

// ChatEventType tags the streamed chat event union.
type ChatEventType string

const (
	ChatEventText        ChatEventType = "TEXT"
	ChatEventThinking    ChatEventType = "THINKING"
	ChatEventToolUse     ChatEventType = "TOOL_USE"
	ChatEventToolResult  ChatEventType = "TOOL_RESULT"
	ChatEventError       ChatEventType = "ERROR"
	ChatEventComplete    ChatEventType = "COMPLETE"
	ChatEventInterrupted ChatEventType = "INTERRUPTED"
)

// ChatEvent is one frame of the chat stream. Seq is per-stream, strictly
// increasing from 1 with no gaps. Fields irrelevant for a given Type stay
// empty and are omitted from JSON.
type ChatEvent struct {
	Type        ChatEventType  `json:"type"`
	Seq         int64          `json:"seq"`
	Content     string         `json:"content,omitempty"`
	Incremental bool           `json:"incremental,omitempty"`
	ToolId      string         `json:"tool_id,omitempty"`
	ToolName    string         `json:"tool_name,omitempty"`
	ToolInput   map[string]any `json:"tool_input,omitempty"`
	ToolResult  string         `json:"tool_result,omitempty"`
	ErrorCode   string         `json:"error_code,omitempty"`
	Error       string         `json:"error,omitempty"`
}

func NewTextEvent(seq int64, content string, incremental bool) ChatEvent {
	return ChatEvent{Type: ChatEventText, Seq: seq, Content: content, Incremental: incremental}
}

func NewThinkingEvent(seq int64, content string, incremental bool) ChatEvent {
	return ChatEvent{Type: ChatEventThinking, Seq: seq, Content: content, Incremental: incremental}
}

func NewToolUseEvent(seq int64, toolId, toolName string, input map[string]any) ChatEvent {
	return ChatEvent{Type: ChatEventToolUse, Seq: seq, ToolId: toolId, ToolName: toolName, ToolInput: input}
}

func NewToolResultEvent(seq int64, toolId, toolName, result string) ChatEvent {
	return ChatEvent{Type: ChatEventToolResult, Seq: seq, ToolId: toolId, ToolName: toolName, ToolResult: result}
}

func NewErrorEvent(seq int64, code, message string) ChatEvent {
	return ChatEvent{Type: ChatEventError, Seq: seq, ErrorCode: code, Error: message}
}

func NewCompleteEvent(seq int64) ChatEvent {
	return ChatEvent{Type: ChatEventComplete, Seq: seq}
}

func NewInterruptedEvent(seq int64) ChatEvent {
	return ChatEvent{Type: ChatEventInterrupted, Seq: seq}
}

type CreateSessionRequest struct {
	PaperId int64  `json:"paper_id" validate:"required"`
	Title   string `json:"title"`
}

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllSessionsResponse struct {
	Id            uuid.UUID  `json:"id"`
	PaperId       int64      `json:"paper_id"`
	Title         string     `json:"title"`
	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

// HistoryBlock is one content block of a history message, in stored order:
// thinking, tool_use, tool_result, then text.
type HistoryBlock struct {
	Type       string         `json:"type"`
	Text       string         `json:"text,omitempty"`
	Thinking   string         `json:"thinking,omitempty"`
	ToolId     string         `json:"tool_id,omitempty"`
	ToolName   string         `json:"tool_name,omitempty"`
	ToolInput  map[string]any `json:"tool_input,omitempty"`
	ToolResult string         `json:"tool_result,omitempty"`
}

type GetChatHistoryResponse struct {
	Role   string         `json:"role"`
	Blocks []HistoryBlock `json:"blocks"`
}
