package contract

import (
	"context"

	"paperinsight-be/internal/entity"
	"paperinsight-be/internal/repository/specification"
)

type PaperInsightRepository interface {
	// Upsert writes the insight keyed by paper id, replacing any previous
	// analysis result for the same paper.
	Upsert(ctx context.Context, insight *entity.PaperInsight) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PaperInsight, error)
}
