package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manyMessages(n int) []Msg {
	msgs := make([]Msg, n)
	for i := range msgs {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		msgs[i] = Msg{Role: role, Blocks: []Block{TextBlock(strings.Repeat("token ", 50))}}
	}
	return msgs
}

func TestCompactUnderBudgetIsNoop(t *testing.T) {
	m := NewMemory(MemoryConfig{}, nil)
	state := &ConversationState{Messages: []Msg{UserMsg("hi")}}
	m.Compact(context.Background(), state)
	assert.Len(t, state.Messages, 1)
}

func TestCompactKeepsLastVerbatim(t *testing.T) {
	provider := &scriptedProvider{generate: "summary of the early turns"}
	m := NewMemory(MemoryConfig{LastKeep: 4, ContextWindow: 100, TokenRatio: 0.4}, provider)

	state := &ConversationState{Messages: manyMessages(12)}
	tail := append([]Msg(nil), state.Messages[8:]...)

	m.Compact(context.Background(), state)

	require.Len(t, state.Messages, 4)
	assert.Equal(t, tail, state.Messages)
	assert.Equal(t, "summary of the early turns", state.Summary)
}

func TestCompactSummarizerFailureKeepsOldSummary(t *testing.T) {
	provider := &scriptedProvider{genErr: errors.New("model offline")}
	m := NewMemory(MemoryConfig{LastKeep: 2, ContextWindow: 100, TokenRatio: 0.4}, provider)

	state := &ConversationState{
		Messages: manyMessages(8),
		Summary:  "previous summary",
	}
	m.Compact(context.Background(), state)

	assert.Len(t, state.Messages, 2)
	assert.Equal(t, "previous summary", state.Summary)
}

func TestRenderOrdersSystemSummaryHistory(t *testing.T) {
	m := NewMemory(MemoryConfig{}, nil)
	state := &ConversationState{
		Summary:  "we discussed the abstract",
		Messages: []Msg{UserMsg("what about section 3?")},
	}
	out := m.Render("You are a paper analysis assistant.", state)

	require.Len(t, out, 3)
	assert.Equal(t, RoleSystem, out[0].Role)
	assert.Equal(t, RoleSystem, out[1].Role)
	assert.Contains(t, out[1].Content, "we discussed the abstract")
	assert.Equal(t, RoleUser, out[2].Role)
}

func TestRenderAssistantToolTurn(t *testing.T) {
	m := NewMemory(MemoryConfig{}, nil)
	state := &ConversationState{Messages: []Msg{
		{Role: RoleAssistant, Blocks: []Block{
			ThinkingBlock("need to search"),
			ToolUseBlock("call_1", "search_paper", map[string]any{"query": "loss"}),
		}},
		{Role: RoleTool, Blocks: []Block{
			ToolResultBlock("call_1", "search_paper", "the loss is cross-entropy"),
		}},
	}}
	out := m.Render("", state)

	require.Len(t, out, 2)
	require.Len(t, out[0].ToolCalls, 1)
	assert.Equal(t, "search_paper", out[0].ToolCalls[0].Name)
	assert.Equal(t, RoleTool, out[1].Role)
	assert.Equal(t, "call_1", out[1].ToolCallID)
	assert.Equal(t, "the loss is cross-entropy", out[1].Content)
}

func TestIsFragmentTool(t *testing.T) {
	assert.True(t, IsFragmentTool("search__fragment__chunk"))
	assert.True(t, IsFragmentTool("__fragment__lookup"))
	assert.False(t, IsFragmentTool("search_paper"))
}
