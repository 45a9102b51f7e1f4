package service

import (
	"context"

	"paperinsight-be/internal/dto"
	"paperinsight-be/internal/pkg/logger"
	"paperinsight-be/internal/repository/specification"
	"paperinsight-be/internal/repository/unitofwork"
)

// IPaperService fronts the analysis pipeline: enqueue work, read results.
type IPaperService interface {
	Analyze(ctx context.Context, userId, paperId int64, request *dto.AnalyzePaperRequest) (*dto.AnalyzePaperResponse, error)
	GetInsight(ctx context.Context, userId, paperId int64) (*dto.PaperInsightResponse, error)
}

type paperService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	logger     logger.ILogger
}

func NewPaperService(uowFactory unitofwork.RepositoryFactory, publisher IPublisherService, log logger.ILogger) IPaperService {
	return &paperService{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *paperService) Analyze(ctx context.Context, userId, paperId int64, request *dto.AnalyzePaperRequest) (*dto.AnalyzePaperResponse, error) {
	task := dto.AnalysisTask{
		PaperId: paperId,
		PdfUrl:  request.PdfUrl,
		UserId:  userId,
	}
	if err := s.publisher.PublishAnalysisTask(ctx, task); err != nil {
		s.logger.Error("PaperService", "Failed to enqueue analysis", map[string]interface{}{
			"paper_id": paperId,
			"error":    err.Error(),
		})
		return nil, err
	}

	s.logger.Info("PaperService", "Analysis queued", map[string]interface{}{"paper_id": paperId, "user_id": userId})

	return &dto.AnalyzePaperResponse{
		PaperId: paperId,
		Status:  "QUEUED",
	}, nil
}

func (s *paperService) GetInsight(ctx context.Context, userId, paperId int64) (*dto.PaperInsightResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	insight, err := uow.PaperInsightRepository().FindOne(ctx,
		specification.ByPaperID{PaperID: paperId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if insight == nil {
		return nil, ErrInsightNotFound
	}

	return &dto.PaperInsightResponse{
		PaperId:          insight.PaperId,
		Summary:          insight.Summary,
		InnovationPoints: insight.InnovationPoints,
		Methods:          insight.Methods,
		Score:            insight.Score,
		ScoreDetails:     insight.ScoreDetails,
		UpdatedAt:        insight.UpdatedAt,
	}, nil
}
