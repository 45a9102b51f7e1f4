package service

import (
	"context"
	"encoding/json"
	"fmt"

	"paperinsight-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IPublisherService enqueues analysis tasks for the pipeline consumer.
type IPublisherService interface {
	PublishAnalysisTask(ctx context.Context, task dto.AnalysisTask) error
}

type publisherService struct {
	publisher message.Publisher
	topicName string
}

func NewPublisherService(publisher message.Publisher, topicName string) IPublisherService {
	return &publisherService{
		publisher: publisher,
		topicName: topicName,
	}
}

func (s *publisherService) PublishAnalysisTask(ctx context.Context, task dto.AnalysisTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal analysis task: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := s.publisher.Publish(s.topicName, msg); err != nil {
		return fmt.Errorf("publish analysis task: %w", err)
	}
	return nil
}
