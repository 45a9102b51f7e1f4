package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperinsight-be/pkg/llm"
)

// scriptedProvider replays one fragment script per Stream call.
type scriptedProvider struct {
	mu       sync.Mutex
	scripts  [][]llm.Fragment
	call     int
	generate string
	genErr   error
	block    chan struct{} // when set, Stream stalls until ctx cancel
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.generate, p.genErr
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.generate, p.genErr
}

func (p *scriptedProvider) Stream(ctx context.Context, history []llm.Message, tools []llm.ToolSpec, options ...llm.Option) (<-chan llm.Fragment, error) {
	p.mu.Lock()
	var script []llm.Fragment
	if p.call < len(p.scripts) {
		script = p.scripts[p.call]
	}
	p.call++
	block := p.block
	p.mu.Unlock()

	out := make(chan llm.Fragment)
	go func() {
		defer close(out)
		if block != nil {
			<-ctx.Done()
			return
		}
		for _, frag := range script {
			select {
			case out <- frag:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func collect(events <-chan Event) []Event {
	var all []Event
	for ev := range events {
		all = append(all, ev)
	}
	return all
}

func TestRunPlainAnswer(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]llm.Fragment{{
		{Thinking: "the user asks about attention"},
		{Text: "Attention weighs "},
		{Text: "token relevance.", Done: true},
	}}}
	toolkit, err := NewToolkit(NewGroupRegistry(), nil)
	require.NoError(t, err)
	a := NewReactAgent(Config{Provider: provider}, toolkit)

	state := &ConversationState{}
	events := collect(a.Run(context.Background(), state, "what is attention?"))

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventReasoning, last.Type)
	assert.True(t, last.Last)
	assert.Equal(t, "Attention weighs token relevance.", last.Msg.Text())

	// user query + assistant turn retained for the next run
	require.Len(t, state.Messages, 2)
	assert.Equal(t, RoleUser, state.Messages[0].Role)
	assert.Equal(t, RoleAssistant, state.Messages[1].Role)
}

func TestRunExecutesToolsThenAnswers(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]llm.Fragment{
		{{ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "search_paper", Arguments: map[string]any{"query": "method"}}}, Done: true}},
		{{Text: "The method is X.", Done: true}},
	}}

	reg := NewGroupRegistry()
	executed := 0
	reg.Register(ToolGroup{
		Name: "rag",
		Tools: []Tool{{
			Name: "search_paper",
			Run: func(ctx context.Context, input map[string]any) (string, error) {
				executed++
				assert.Equal(t, "method", input["query"])
				return "chunk about the method", nil
			},
		}},
	})
	toolkit, err := NewToolkit(reg, []string{"rag"})
	require.NoError(t, err)

	a := NewReactAgent(Config{Provider: provider}, toolkit)
	state := &ConversationState{}
	events := collect(a.Run(context.Background(), state, "how does it work?"))

	assert.Equal(t, 1, executed)

	var types []EventType
	for _, ev := range events {
		if ev.Last || ev.Type == EventToolResult {
			types = append(types, ev.Type)
		}
	}
	assert.Equal(t, []EventType{EventReasoning, EventToolResult, EventReasoning}, types)

	// user, assistant(tool_use), tool, assistant(text)
	require.Len(t, state.Messages, 4)
	assert.Equal(t, RoleTool, state.Messages[2].Role)
	assert.Equal(t, "chunk about the method", state.Messages[2].Blocks[0].ToolResult)
}

func TestRunToolErrorBecomesResult(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]llm.Fragment{
		{{ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "search_paper"}}, Done: true}},
		{{Text: "done", Done: true}},
	}}
	reg := NewGroupRegistry()
	reg.Register(ToolGroup{Name: "rag", Tools: []Tool{{
		Name: "search_paper",
		Run: func(ctx context.Context, input map[string]any) (string, error) {
			return "", errors.New("index unavailable")
		},
	}}})
	toolkit, _ := NewToolkit(reg, []string{"rag"})

	a := NewReactAgent(Config{Provider: provider}, toolkit)
	state := &ConversationState{}
	collect(a.Run(context.Background(), state, "q"))

	assert.Contains(t, state.Messages[2].Blocks[0].ToolResult, "index unavailable")
}

func TestRunBoundedByMaxIterations(t *testing.T) {
	// Model keeps asking for tools; the loop must stop at the bound.
	script := []llm.Fragment{{ToolCalls: []llm.ToolCall{{ID: "c", Name: "search_paper"}}, Done: true}}
	provider := &scriptedProvider{scripts: [][]llm.Fragment{script, script, script, script, script}}
	reg := NewGroupRegistry()
	reg.Register(ToolGroup{Name: "rag", Tools: []Tool{{
		Name: "search_paper",
		Run:  func(ctx context.Context, input map[string]any) (string, error) { return "more", nil },
	}}})
	toolkit, _ := NewToolkit(reg, []string{"rag"})

	a := NewReactAgent(Config{Provider: provider, MaxIterations: 2}, toolkit)
	collect(a.Run(context.Background(), &ConversationState{}, "q"))

	assert.Equal(t, 2, provider.call)
}

func TestRunStreamErrorSurfaces(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]llm.Fragment{{
		{Text: "partial"},
		{Err: errors.New("upstream reset")},
	}}}
	toolkit, _ := NewToolkit(NewGroupRegistry(), nil)
	a := NewReactAgent(Config{Provider: provider}, toolkit)

	events := collect(a.Run(context.Background(), &ConversationState{}, "q"))
	require.NotEmpty(t, events)
	assert.Error(t, events[len(events)-1].Err)
}

func TestRunInterruptAppendsNotice(t *testing.T) {
	provider := &scriptedProvider{block: make(chan struct{})}
	toolkit, _ := NewToolkit(NewGroupRegistry(), nil)
	a := NewReactAgent(Config{Provider: provider}, toolkit)

	ctx, cancel := context.WithCancel(context.Background())
	state := &ConversationState{}
	events := a.Run(ctx, state, "q")

	time.Sleep(10 * time.Millisecond)
	cancel()
	collect(events)

	require.NotEmpty(t, state.Messages)
	assert.True(t, state.Messages[len(state.Messages)-1].IsInterruptNotice())
}
