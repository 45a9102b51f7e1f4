package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "ANALYSIS_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation used by every concrete constructor.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewAnalysisCompleted is emitted after a paper has been analyzed and indexed.
func NewAnalysisCompleted(paperID, userID int64, score float64) Event {
	return BaseEvent{
		Type: "ANALYSIS_COMPLETED",
		Data: map[string]interface{}{
			"paper_id": paperID,
			"user_id":  userID,
			"score":    score,
		},
		OccurredAt: time.Now(),
	}
}

// NewAnalysisFailed is emitted when the analysis pipeline gives up on a paper.
func NewAnalysisFailed(paperID, userID int64, reason string) Event {
	return BaseEvent{
		Type: "ANALYSIS_FAILED",
		Data: map[string]interface{}{
			"paper_id": paperID,
			"user_id":  userID,
			"reason":   reason,
		},
		OccurredAt: time.Now(),
	}
}
