package model

import (
	"time"

	"gorm.io/datatypes"
)

type PaperInsight struct {
	Id               uint           `gorm:"primaryKey;autoIncrement"`
	PaperId          int64          `gorm:"not null;uniqueIndex"`
	UserId           int64          `gorm:"not null;index"`
	Summary          string         `gorm:"type:text"`
	InnovationPoints string         `gorm:"type:text"`
	Methods          string         `gorm:"type:text"`
	Score            int            `gorm:"default:0"`
	ScoreDetails     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
}

func (PaperInsight) TableName() string {
	return "paper_insights"
}
