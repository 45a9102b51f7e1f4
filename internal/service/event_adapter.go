package service

import (
	"paperinsight-be/internal/dto"
	"paperinsight-be/pkg/agent"
)

// EventAdapter converts raw agent events into client chat events, numbering
// every frame with a per-stream sequence: strictly increasing, gapless,
// starting at 1. One adapter serves exactly one stream.
type EventAdapter struct {
	seq int64
}

func NewEventAdapter() *EventAdapter {
	return &EventAdapter{}
}

func (a *EventAdapter) next() int64 {
	a.seq++
	return a.seq
}

// Convert maps one raw event to zero or more chat events:
//   - TOOL_RESULT: one event per tool result block.
//   - Final REASONING: one TOOL_USE per tool-use block, fragment tools
//     skipped; deltas were already streamed, so text blocks are not re-sent.
//   - Delta REASONING: THINKING increments first, then TEXT increments.
func (a *EventAdapter) Convert(ev agent.Event) []dto.ChatEvent {
	switch ev.Type {
	case agent.EventToolResult:
		var out []dto.ChatEvent
		for _, b := range ev.Msg.Blocks {
			if b.Type != agent.BlockToolResult {
				continue
			}
			out = append(out, dto.NewToolResultEvent(a.next(), b.ToolID, b.ToolName, b.ToolResult))
		}
		return out

	case agent.EventReasoning:
		if ev.Last {
			var out []dto.ChatEvent
			for _, b := range ev.Msg.Blocks {
				if b.Type != agent.BlockToolUse || agent.IsFragmentTool(b.ToolName) {
					continue
				}
				out = append(out, dto.NewToolUseEvent(a.next(), b.ToolID, b.ToolName, b.ToolInput))
			}
			return out
		}

		// Partition first, then number: seq must follow emission order
		// (thinking before text), not the block order inside the delta.
		var thinking, text []agent.Block
		for _, b := range ev.Msg.Blocks {
			switch b.Type {
			case agent.BlockThinking:
				thinking = append(thinking, b)
			case agent.BlockText:
				text = append(text, b)
			}
		}
		out := make([]dto.ChatEvent, 0, len(thinking)+len(text))
		for _, b := range thinking {
			out = append(out, dto.NewThinkingEvent(a.next(), b.Thinking, true))
		}
		for _, b := range text {
			out = append(out, dto.NewTextEvent(a.next(), b.Text, true))
		}
		return out
	}
	return nil
}

// Fail terminates the stream after a processing error: ERROR then COMPLETE.
func (a *EventAdapter) Fail(code, message string) []dto.ChatEvent {
	return []dto.ChatEvent{
		dto.NewErrorEvent(a.next(), code, message),
		dto.NewCompleteEvent(a.next()),
	}
}

// Interrupt terminates the stream after a client stop: INTERRUPTED then
// COMPLETE.
func (a *EventAdapter) Interrupt() []dto.ChatEvent {
	return []dto.ChatEvent{
		dto.NewInterruptedEvent(a.next()),
		dto.NewCompleteEvent(a.next()),
	}
}

// Complete ends an exhausted stream.
func (a *EventAdapter) Complete() dto.ChatEvent {
	return dto.NewCompleteEvent(a.next())
}
