package agent

import (
	"context"
	"fmt"
	"strings"

	"paperinsight-be/pkg/llm"
)

// fragmentMarker tags internal plumbing tools whose invocations are not
// surfaced to clients.
const fragmentMarker = "__fragment__"

// IsFragmentTool reports whether a tool name marks an internal fragment tool.
func IsFragmentTool(name string) bool {
	return strings.Contains(name, fragmentMarker)
}

// ToolFunc executes a tool call and returns its textual output.
type ToolFunc func(ctx context.Context, input map[string]any) (string, error)

// Tool is one callable tool: spec plus handler.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Run         ToolFunc
}

// ToolGroup is a named bundle of tools an agent can be equipped with.
type ToolGroup struct {
	Name          string
	Description   string
	InitialActive bool
	Tools         []Tool
}

// GroupRegistry holds the configured tool groups. Group resolution is a
// plain map lookup on the configured data.
type GroupRegistry struct {
	groups map[string]ToolGroup
}

func NewGroupRegistry() *GroupRegistry {
	return &GroupRegistry{groups: make(map[string]ToolGroup)}
}

func (r *GroupRegistry) Register(g ToolGroup) {
	r.groups[g.Name] = g
}

func (r *GroupRegistry) Get(name string) (ToolGroup, bool) {
	g, ok := r.groups[name]
	return g, ok
}

// Toolkit is the set of tools equipped for a single run, assembled from the
// group names configured for the agent.
type Toolkit struct {
	tools map[string]Tool
	order []string
}

// NewToolkit resolves group names against the registry. An unknown group
// name is a configuration error.
func NewToolkit(reg *GroupRegistry, groupNames []string) (*Toolkit, error) {
	tk := &Toolkit{tools: make(map[string]Tool)}
	for _, name := range groupNames {
		g, ok := reg.Get(name)
		if !ok {
			return nil, fmt.Errorf("agent: unknown tool group %q", name)
		}
		for _, t := range g.Tools {
			if _, exists := tk.tools[t.Name]; !exists {
				tk.order = append(tk.order, t.Name)
			}
			tk.tools[t.Name] = t
		}
	}
	return tk, nil
}

// Specs lists the equipped tools in registration order for the model.
func (tk *Toolkit) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(tk.order))
	for _, name := range tk.order {
		t := tk.tools[name]
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return specs
}

// Execute runs one tool call. A missing tool or handler failure is reported
// as the tool's textual result so the model can react to it.
func (tk *Toolkit) Execute(ctx context.Context, call llm.ToolCall) string {
	t, ok := tk.tools[call.Name]
	if !ok {
		return fmt.Sprintf("tool %q is not available", call.Name)
	}
	out, err := t.Run(ctx, call.Arguments)
	if err != nil {
		return fmt.Sprintf("tool %q failed: %v", call.Name, err)
	}
	return out
}
