package agent

import (
	"context"
	"strings"

	"paperinsight-be/pkg/llm"
)

// DefaultMaxIterations bounds the reason/act loop when the config leaves it
// unset.
const DefaultMaxIterations = 5

// Config configures a ReactAgent.
type Config struct {
	Provider      llm.Provider
	SystemPrompt  string
	MaxIterations int
	Memory        *Memory
}

// ReactAgent runs a bounded reason/act loop: stream a model turn, execute
// any requested tools, feed the results back, repeat. The loop stops when a
// turn requests no tools or the iteration bound is hit; whatever text the
// model produced by then stands as the answer.
type ReactAgent struct {
	cfg     Config
	toolkit *Toolkit
}

func NewReactAgent(cfg Config, toolkit *Toolkit) *ReactAgent {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Memory == nil {
		cfg.Memory = NewMemory(MemoryConfig{}, cfg.Provider)
	}
	return &ReactAgent{cfg: cfg, toolkit: toolkit}
}

// Run appends the user query to state and executes the loop, streaming raw
// events until the channel closes. State is mutated in place; the caller
// persists it after the stream ends no matter how the run terminated. On
// cancellation an interrupt notice is appended to state before the channel
// closes.
func (a *ReactAgent) Run(ctx context.Context, state *ConversationState, userQuery string) <-chan Event {
	out := make(chan Event, 16)
	state.Messages = append(state.Messages, UserMsg(userQuery))

	go func() {
		defer close(out)
		defer func() {
			if ctx.Err() != nil {
				state.Messages = append(state.Messages, UserMsg(InterruptNotice))
			}
		}()

		for iter := 0; iter < a.cfg.MaxIterations; iter++ {
			a.cfg.Memory.Compact(ctx, state)
			history := a.cfg.Memory.Render(a.cfg.SystemPrompt, state)

			frags, err := a.cfg.Provider.Stream(ctx, history, a.toolkit.Specs())
			if err != nil {
				if ctx.Err() == nil {
					a.send(ctx, out, Event{Err: err})
				}
				return
			}

			var thinking, text strings.Builder
			var calls []llm.ToolCall
			for frag := range frags {
				if frag.Err != nil {
					if ctx.Err() == nil {
						a.send(ctx, out, Event{Err: frag.Err})
					}
					return
				}

				var deltas []Block
				if frag.Thinking != "" {
					thinking.WriteString(frag.Thinking)
					deltas = append(deltas, ThinkingBlock(frag.Thinking))
				}
				if frag.Text != "" {
					text.WriteString(frag.Text)
					deltas = append(deltas, TextBlock(frag.Text))
				}
				calls = append(calls, frag.ToolCalls...)

				if len(deltas) > 0 {
					if !a.send(ctx, out, Event{
						Type: EventReasoning,
						Msg:  Msg{Role: RoleAssistant, Blocks: deltas},
					}) {
						return
					}
				}
				if frag.Done {
					break
				}
			}
			if ctx.Err() != nil {
				return
			}

			turn := Msg{Role: RoleAssistant}
			if thinking.Len() > 0 {
				turn.Blocks = append(turn.Blocks, ThinkingBlock(thinking.String()))
			}
			for _, call := range calls {
				turn.Blocks = append(turn.Blocks, ToolUseBlock(call.ID, call.Name, call.Arguments))
			}
			if text.Len() > 0 {
				turn.Blocks = append(turn.Blocks, TextBlock(text.String()))
			}
			state.Messages = append(state.Messages, turn)
			if !a.send(ctx, out, Event{Type: EventReasoning, Msg: turn, Last: true}) {
				return
			}

			if len(calls) == 0 {
				return
			}

			results := Msg{Role: RoleTool}
			for _, call := range calls {
				output := a.toolkit.Execute(ctx, call)
				results.Blocks = append(results.Blocks, ToolResultBlock(call.ID, call.Name, output))
			}
			if ctx.Err() != nil {
				return
			}
			state.Messages = append(state.Messages, results)
			if !a.send(ctx, out, Event{Type: EventToolResult, Msg: results, Last: true}) {
				return
			}
		}
	}()
	return out
}

func (a *ReactAgent) send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
