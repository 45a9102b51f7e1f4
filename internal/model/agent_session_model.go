package model

import (
	"time"

	"gorm.io/datatypes"
)

// AgentSession persists agent conversation state per (namespace, session).
type AgentSession struct {
	Namespace string         `gorm:"type:varchar(50);primaryKey"`
	SessionId string         `gorm:"type:varchar(100);primaryKey"`
	State     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (AgentSession) TableName() string {
	return "agent_sessions"
}
