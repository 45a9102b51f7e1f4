package unitofwork

import (
	"context"

	"paperinsight-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	PaperInsightRepository() contract.PaperInsightRepository
	NotificationRepository() contract.NotificationRepository
}
