package service

import (
	"testing"

	"paperinsight-be/internal/dto"
	"paperinsight-be/pkg/agent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deltaEvent(blocks ...agent.Block) agent.Event {
	return agent.Event{
		Type: agent.EventReasoning,
		Msg:  agent.Msg{Role: agent.RoleAssistant, Blocks: blocks},
	}
}

func TestEventAdapterSequencing(t *testing.T) {
	a := NewEventAdapter()

	var all []dto.ChatEvent
	all = append(all, a.Convert(deltaEvent(agent.ThinkingBlock("hm")))...)
	all = append(all, a.Convert(deltaEvent(agent.TextBlock("hello")))...)
	all = append(all, a.Convert(deltaEvent(agent.TextBlock(" world")))...)
	all = append(all, a.Complete())

	require.Len(t, all, 4)
	for i, ev := range all {
		assert.Equal(t, int64(i+1), ev.Seq, "seq must be gapless from 1")
	}
	assert.Equal(t, dto.ChatEventComplete, all[len(all)-1].Type)
}

func TestEventAdapterThinkingBeforeText(t *testing.T) {
	a := NewEventAdapter()

	// A single delta carrying both block kinds must order thinking first.
	out := a.Convert(deltaEvent(
		agent.TextBlock("answer"),
		agent.ThinkingBlock("reasoning"),
	))

	require.Len(t, out, 2)
	assert.Equal(t, dto.ChatEventThinking, out[0].Type)
	assert.Equal(t, "reasoning", out[0].Content)
	assert.True(t, out[0].Incremental)
	assert.Equal(t, dto.ChatEventText, out[1].Type)
	assert.Equal(t, "answer", out[1].Content)

	// seq follows emission order, not the block order inside the delta.
	assert.Equal(t, int64(1), out[0].Seq)
	assert.Equal(t, int64(2), out[1].Seq)
}

func TestEventAdapterFinalReasoningEmitsToolUseOnly(t *testing.T) {
	a := NewEventAdapter()

	ev := agent.Event{
		Type: agent.EventReasoning,
		Last: true,
		Msg: agent.Msg{
			Role: agent.RoleAssistant,
			Blocks: []agent.Block{
				agent.ThinkingBlock("already streamed"),
				agent.TextBlock("already streamed"),
				agent.ToolUseBlock("call_1", "search_paper", map[string]any{"query": "ablation"}),
			},
		},
	}

	out := a.Convert(ev)

	require.Len(t, out, 1)
	assert.Equal(t, dto.ChatEventToolUse, out[0].Type)
	assert.Equal(t, "call_1", out[0].ToolId)
	assert.Equal(t, "search_paper", out[0].ToolName)
	assert.Equal(t, "ablation", out[0].ToolInput["query"])
}

func TestEventAdapterSkipsFragmentTools(t *testing.T) {
	a := NewEventAdapter()

	ev := agent.Event{
		Type: agent.EventReasoning,
		Last: true,
		Msg: agent.Msg{
			Role: agent.RoleAssistant,
			Blocks: []agent.Block{
				agent.ToolUseBlock("call_1", "__fragment__emit", map[string]any{}),
				agent.ToolUseBlock("call_2", "search_paper", map[string]any{"query": "x"}),
			},
		},
	}

	out := a.Convert(ev)

	require.Len(t, out, 1)
	assert.Equal(t, "search_paper", out[0].ToolName)
	// The skipped tool must not burn a sequence number.
	assert.Equal(t, int64(1), out[0].Seq)
}

func TestEventAdapterToolResultPerBlock(t *testing.T) {
	a := NewEventAdapter()

	ev := agent.Event{
		Type: agent.EventToolResult,
		Msg: agent.Msg{
			Role: agent.RoleTool,
			Blocks: []agent.Block{
				agent.ToolResultBlock("call_1", "search_paper", "chunk a"),
				agent.ToolResultBlock("call_2", "search_paper", "chunk b"),
			},
		},
	}

	out := a.Convert(ev)

	require.Len(t, out, 2)
	assert.Equal(t, dto.ChatEventToolResult, out[0].Type)
	assert.Equal(t, "chunk a", out[0].ToolResult)
	assert.Equal(t, "chunk b", out[1].ToolResult)
	assert.Equal(t, int64(1), out[0].Seq)
	assert.Equal(t, int64(2), out[1].Seq)
}

func TestEventAdapterFailAndInterruptTerminate(t *testing.T) {
	t.Run("fail", func(t *testing.T) {
		a := NewEventAdapter()
		a.Convert(deltaEvent(agent.TextBlock("partial")))

		out := a.Fail("LLM_ERROR", "model unavailable")

		require.Len(t, out, 2)
		assert.Equal(t, dto.ChatEventError, out[0].Type)
		assert.Equal(t, "LLM_ERROR", out[0].ErrorCode)
		assert.Equal(t, "model unavailable", out[0].Error)
		assert.Equal(t, dto.ChatEventComplete, out[1].Type)
		assert.Equal(t, int64(2), out[0].Seq)
		assert.Equal(t, int64(3), out[1].Seq)
	})

	t.Run("interrupt", func(t *testing.T) {
		a := NewEventAdapter()

		out := a.Interrupt()

		require.Len(t, out, 2)
		assert.Equal(t, dto.ChatEventInterrupted, out[0].Type)
		assert.Equal(t, dto.ChatEventComplete, out[1].Type)
	})
}
