package dto

import "time"

// AnalysisTask is the queue payload that triggers the analysis pipeline.
type AnalysisTask struct {
	PaperId int64  `json:"paper_id" validate:"required"`
	PdfUrl  string `json:"pdf_url" validate:"required"`
	UserId  int64  `json:"user_id" validate:"required"`
}

type AnalyzePaperRequest struct {
	PdfUrl string `json:"pdf_url" validate:"required,url"`
}

type AnalyzePaperResponse struct {
	PaperId int64  `json:"paper_id"`
	Status  string `json:"status"`
}

type PaperInsightResponse struct {
	PaperId          int64          `json:"paper_id"`
	Summary          string         `json:"summary"`
	InnovationPoints string         `json:"innovation_points"`
	Methods          string         `json:"methods"`
	Score            int            `json:"score"`
	ScoreDetails     map[string]any `json:"score_details,omitempty"`
	UpdatedAt        *time.Time     `json:"updated_at"`
}
