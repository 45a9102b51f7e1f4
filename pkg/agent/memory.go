package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"paperinsight-be/pkg/llm"
)

const (
	defaultTokenRatio    = 0.4
	defaultLastKeep      = 10
	defaultContextWindow = 32768
)

const summarizePrompt = `Condense the following conversation fragment into a short factual summary.
Keep paper titles, section names, numeric findings and user preferences.
Previous summary (may be empty):
%s

Fragment:
%s

Summary:`

// MemoryConfig tunes the conversation memory.
type MemoryConfig struct {
	// TokenRatio is the share of the context window the history may occupy.
	TokenRatio float64
	// LastKeep is how many most-recent messages are always kept verbatim.
	LastKeep int
	// ContextWindow is the model's context size in tokens.
	ContextWindow int
}

// Memory keeps a conversation inside a token budget. The most recent
// LastKeep messages survive verbatim; older ones get folded into the rolling
// summary when the budget overflows.
type Memory struct {
	cfg        MemoryConfig
	summarizer llm.Provider
}

func NewMemory(cfg MemoryConfig, summarizer llm.Provider) *Memory {
	if cfg.TokenRatio <= 0 {
		cfg.TokenRatio = defaultTokenRatio
	}
	if cfg.LastKeep <= 0 {
		cfg.LastKeep = defaultLastKeep
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = defaultContextWindow
	}
	return &Memory{cfg: cfg, summarizer: summarizer}
}

func (m *Memory) budget() int {
	return int(m.cfg.TokenRatio * float64(m.cfg.ContextWindow))
}

func msgTokens(msg Msg) int {
	n := 0
	for _, b := range msg.Blocks {
		n += CountTokens(b.Text)
		n += CountTokens(b.Thinking)
		n += CountTokens(b.ToolResult)
		if b.ToolInput != nil {
			raw, _ := json.Marshal(b.ToolInput)
			n += CountTokens(string(raw))
		}
	}
	return n
}

func stateTokens(state *ConversationState) int {
	n := CountTokens(state.Summary)
	for _, msg := range state.Messages {
		n += msgTokens(msg)
	}
	return n
}

// Compact folds messages older than LastKeep into the rolling summary while
// the state exceeds the token budget. A summarizer failure drops the evicted
// messages and keeps the previous summary; the budget still shrinks.
func (m *Memory) Compact(ctx context.Context, state *ConversationState) {
	if stateTokens(state) <= m.budget() {
		return
	}
	if len(state.Messages) <= m.cfg.LastKeep {
		return
	}

	cut := len(state.Messages) - m.cfg.LastKeep
	evicted := state.Messages[:cut]
	state.Messages = append([]Msg(nil), state.Messages[cut:]...)

	if m.summarizer == nil {
		return
	}
	var fragment strings.Builder
	for _, msg := range evicted {
		text := msg.Text()
		if text == "" {
			continue
		}
		fragment.WriteString(msg.Role)
		fragment.WriteString(": ")
		fragment.WriteString(text)
		fragment.WriteString("\n")
	}
	summary, err := m.summarizer.Generate(ctx, fmt.Sprintf(summarizePrompt, state.Summary, fragment.String()))
	if err != nil {
		return
	}
	state.Summary = strings.TrimSpace(summary)
}

// Render converts the state into provider messages, prefixing the system
// prompt and the rolling summary.
func (m *Memory) Render(systemPrompt string, state *ConversationState) []llm.Message {
	out := make([]llm.Message, 0, len(state.Messages)+2)
	if systemPrompt != "" {
		out = append(out, llm.Message{Role: RoleSystem, Content: systemPrompt})
	}
	if state.Summary != "" {
		out = append(out, llm.Message{
			Role:    RoleSystem,
			Content: "Summary of the earlier conversation:\n" + state.Summary,
		})
	}
	for _, msg := range state.Messages {
		out = append(out, toProviderMessages(msg)...)
	}
	return out
}

func toProviderMessages(msg Msg) []llm.Message {
	switch msg.Role {
	case RoleTool:
		// One provider message per tool result block.
		var out []llm.Message
		for _, b := range msg.Blocks {
			if b.Type != BlockToolResult {
				continue
			}
			out = append(out, llm.Message{
				Role:       RoleTool,
				Content:    b.ToolResult,
				ToolCallID: b.ToolID,
			})
		}
		return out
	case RoleAssistant:
		pm := llm.Message{Role: RoleAssistant}
		for _, b := range msg.Blocks {
			switch b.Type {
			case BlockText:
				pm.Content += b.Text
			case BlockThinking:
				pm.Thinking += b.Thinking
			case BlockToolUse:
				pm.ToolCalls = append(pm.ToolCalls, llm.ToolCall{
					ID:        b.ToolID,
					Name:      b.ToolName,
					Arguments: b.ToolInput,
				})
			}
		}
		return []llm.Message{pm}
	default:
		return []llm.Message{{Role: msg.Role, Content: msg.Text()}}
	}
}
