package implementation

import (
	"context"
	"errors"

	"paperinsight-be/internal/entity"
	"paperinsight-be/internal/mapper"
	"paperinsight-be/internal/model"
	"paperinsight-be/internal/repository/contract"
	"paperinsight-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaperInsightRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.InsightMapper
}

func NewPaperInsightRepository(db *gorm.DB) contract.PaperInsightRepository {
	return &PaperInsightRepositoryImpl{
		db:     db,
		mapper: mapper.NewInsightMapper(),
	}
}

func (r *PaperInsightRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PaperInsightRepositoryImpl) Upsert(ctx context.Context, insight *entity.PaperInsight) error {
	m := r.mapper.ToModel(insight)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "paper_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"summary", "innovation_points", "methods", "score", "score_details", "updated_at",
			}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*insight = *r.mapper.ToEntity(m)
	return nil
}

func (r *PaperInsightRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PaperInsight, error) {
	var m model.PaperInsight
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
