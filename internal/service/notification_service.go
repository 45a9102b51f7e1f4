package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"paperinsight-be/internal/dto"
	"paperinsight-be/internal/entity"
	"paperinsight-be/internal/pkg/logger"
	"paperinsight-be/internal/repository/specification"
	"paperinsight-be/internal/repository/unitofwork"
	"paperinsight-be/pkg/events"
	pktNats "paperinsight-be/pkg/nats"

	"github.com/google/uuid"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID int64, notification entity.Notification)
}

type INotificationService interface {
	// Start begins consuming the event bus. Blocking failures are logged,
	// not returned; the HTTP surface stays up without real-time delivery.
	Start()
	GetNotifications(ctx context.Context, userId int64) (*dto.ListNotificationsResponse, error)
	MarkRead(ctx context.Context, id uuid.UUID, userId int64) error
}

type notificationService struct {
	uowFactory unitofwork.RepositoryFactory
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(
	uowFactory unitofwork.RepositoryFactory,
	sub *pktNats.Subscriber,
	delivery NotificationDelivery,
	log logger.ILogger,
) INotificationService {
	return &notificationService{
		uowFactory: uowFactory,
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

func (s *notificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *notificationService) handleEvent(ctx context.Context, event events.Event) error {
	// NATS subjects carry the "events." prefix.
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	notif, ok := buildAnalysisNotification(typeCode, event.Payload())
	if !ok {
		s.logger.Debug("NotificationService", fmt.Sprintf("Ignoring event: %s", typeCode), nil)
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	created, err := uow.NotificationRepository().CreateIdempotent(ctx, notif)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to persist notification", map[string]interface{}{
			"dedup_key": notif.DedupKey,
			"error":     err.Error(),
		})
		return err // Nak, JetStream redelivers
	}
	if !created {
		// Redelivered event; the notification already went out.
		s.logger.Info("NotificationService", "Duplicate notification suppressed", map[string]interface{}{"dedup_key": notif.DedupKey})
		return nil
	}

	if s.delivery != nil {
		s.delivery.Send(notif.UserId, *notif)
	}
	return nil
}

// buildAnalysisNotification maps a bus event to an inbox notification.
// Unknown event types yield ok=false and are skipped.
func buildAnalysisNotification(typeCode string, payload map[string]interface{}) (*entity.Notification, bool) {
	paperId, okPaper := asInt64(payload["paper_id"])
	userId, okUser := asInt64(payload["user_id"])
	if !okPaper || !okUser {
		return nil, false
	}

	var title, content string
	switch typeCode {
	case "ANALYSIS_COMPLETED":
		title = "Paper analysis ready"
		content = fmt.Sprintf("The analysis for paper %d has finished.", paperId)
		if score, ok := asInt64(payload["score"]); ok {
			content = fmt.Sprintf("The analysis for paper %d has finished with a score of %d.", paperId, score)
		}
	case "ANALYSIS_FAILED":
		title = "Paper analysis failed"
		reason, _ := payload["reason"].(string)
		if reason == "" {
			reason = "unknown error"
		}
		content = fmt.Sprintf("The analysis for paper %d could not be completed: %s", paperId, reason)
	default:
		return nil, false
	}

	return &entity.Notification{
		Id:        uuid.New(),
		UserId:    userId,
		Type:      typeCode,
		Title:     title,
		Content:   content,
		Payload:   payload,
		DedupKey:  fmt.Sprintf("%s:%d", typeCode, paperId),
		CreatedAt: time.Now(),
	}, true
}

// asInt64 handles the json.Unmarshal number types coming off the bus.
func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userId int64) (*dto.ListNotificationsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.NotificationRepository()

	notifs, err := repo.FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	unread, err := repo.Count(ctx,
		specification.ByUserID{UserID: userId},
		specification.UnreadOnly{},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.NotificationResponse, len(notifs))
	for i, n := range notifs {
		items[i] = dto.NotificationResponse{
			Id:        n.Id,
			Type:      n.Type,
			Title:     n.Title,
			Content:   n.Content,
			Payload:   n.Payload,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
	}

	return &dto.ListNotificationsResponse{
		Notifications: items,
		UnreadCount:   unread,
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID, userId int64) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.NotificationRepository().MarkRead(ctx, id, userId)
}
