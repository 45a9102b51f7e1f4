package contract

import (
	"context"

	"paperinsight-be/internal/entity"
	"paperinsight-be/internal/repository/specification"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	// CreateIdempotent inserts the notification unless its dedup key already
	// exists. It reports whether a row was actually created; a duplicate is
	// not an error.
	CreateIdempotent(ctx context.Context, notification *entity.Notification) (bool, error)
	MarkRead(ctx context.Context, id uuid.UUID, userId int64) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Notification, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
