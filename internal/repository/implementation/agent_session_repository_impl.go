package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"paperinsight-be/internal/model"
	"paperinsight-be/pkg/agent"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AgentSessionRepositoryImpl persists agent conversation state as a JSON
// column keyed by (namespace, session_id). It is the gorm-backed
// agent.SessionStore.
type AgentSessionRepositoryImpl struct {
	db *gorm.DB
}

func NewAgentSessionRepository(db *gorm.DB) agent.SessionStore {
	return &AgentSessionRepositoryImpl{db: db}
}

func (r *AgentSessionRepositoryImpl) Load(ctx context.Context, namespace, sessionID string) (*agent.ConversationState, error) {
	var m model.AgentSession
	err := r.db.WithContext(ctx).
		Where("namespace = ? AND session_id = ?", namespace, sessionID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &agent.ConversationState{}, nil
		}
		return nil, fmt.Errorf("load agent session: %w", err)
	}

	var state agent.ConversationState
	if err := json.Unmarshal(m.State, &state); err != nil {
		return nil, fmt.Errorf("decode agent session state: %w", err)
	}
	return &state, nil
}

func (r *AgentSessionRepositoryImpl) Save(ctx context.Context, namespace, sessionID string, state *agent.ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode agent session state: %w", err)
	}
	m := model.AgentSession{
		Namespace: namespace,
		SessionId: sessionID,
		State:     raw,
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
		}).
		Create(&m).Error
	if err != nil {
		return fmt.Errorf("save agent session: %w", err)
	}
	return nil
}
