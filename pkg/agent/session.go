package agent

import "context"

// ConversationState is everything an agent remembers about one session:
// the retained messages plus a rolling summary of evicted ones.
type ConversationState struct {
	Messages []Msg  `json:"messages"`
	Summary  string `json:"summary,omitempty"`
}

// SessionStore persists conversation state, addressed by namespace and
// session id. Load returns an empty state when nothing was saved yet.
type SessionStore interface {
	Load(ctx context.Context, namespace, sessionID string) (*ConversationState, error)
	Save(ctx context.Context, namespace, sessionID string, state *ConversationState) error
}
