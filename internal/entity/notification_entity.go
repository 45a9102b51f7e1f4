package entity

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	Id        uuid.UUID
	UserId    int64
	Type      string
	Title     string
	Content   string
	Payload   map[string]any
	DedupKey  string
	IsRead    bool
	ReadAt    *time.Time
	CreatedAt time.Time
}
