package agent

// EventType discriminates raw run events.
type EventType string

const (
	// EventReasoning carries model output: streamed deltas (Last false) and
	// the aggregated turn message including tool-use blocks (Last true).
	EventReasoning EventType = "REASONING"
	// EventToolResult carries the results of an executed tool batch.
	EventToolResult EventType = "TOOL_RESULT"
)

// Event is one raw occurrence during an agent run. A terminal failure sets
// Err on the final event before the channel closes.
type Event struct {
	Type EventType
	Msg  Msg
	Last bool
	Err  error
}
