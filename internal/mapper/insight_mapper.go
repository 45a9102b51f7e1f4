package mapper

import (
	"encoding/json"
	"time"

	"paperinsight-be/internal/entity"
	"paperinsight-be/internal/model"

	"gorm.io/datatypes"
)

type InsightMapper struct{}

func NewInsightMapper() *InsightMapper {
	return &InsightMapper{}
}

func (m *InsightMapper) ToEntity(p *model.PaperInsight) *entity.PaperInsight {
	if p == nil {
		return nil
	}

	var details map[string]any
	if len(p.ScoreDetails) > 0 {
		_ = json.Unmarshal(p.ScoreDetails, &details)
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.PaperInsight{
		Id:               p.Id,
		PaperId:          p.PaperId,
		UserId:           p.UserId,
		Summary:          p.Summary,
		InnovationPoints: p.InnovationPoints,
		Methods:          p.Methods,
		Score:            p.Score,
		ScoreDetails:     details,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *InsightMapper) ToModel(p *entity.PaperInsight) *model.PaperInsight {
	if p == nil {
		return nil
	}

	var details datatypes.JSON
	if p.ScoreDetails != nil {
		raw, err := json.Marshal(p.ScoreDetails)
		if err == nil {
			details = raw
		}
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	return &model.PaperInsight{
		Id:               p.Id,
		PaperId:          p.PaperId,
		UserId:           p.UserId,
		Summary:          p.Summary,
		InnovationPoints: p.InnovationPoints,
		Methods:          p.Methods,
		Score:            p.Score,
		ScoreDetails:     details,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}
