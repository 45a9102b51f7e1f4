package entity

import "time"

// PaperInsight holds the outcome of the analysis pipeline for one paper.
// ScoreDetails carries the raw scoring breakdown; when score parsing failed
// it contains the error and the raw model response instead.
type PaperInsight struct {
	Id               uint
	PaperId          int64
	UserId           int64
	Summary          string
	InnovationPoints string
	Methods          string
	Score            int
	ScoreDetails     map[string]any
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
