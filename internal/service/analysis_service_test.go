package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"paperinsight-be/internal/dto"
	"paperinsight-be/internal/entity"
	"paperinsight-be/internal/repository/specification"
	"paperinsight-be/pkg/events"
	"paperinsight-be/pkg/extract"
	"paperinsight-be/pkg/llm"
	"paperinsight-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	text string
}

func (s *stubExtractor) ExtractText(ctx context.Context, pdfURL string) string {
	return s.text
}

// scriptedLLM answers every Generate call with the same response (or error)
// and counts how many calls it served.
type scriptedLLM struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.response, s.err
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.Generate(ctx, "")
}

func (s *scriptedLLM) Stream(ctx context.Context, history []llm.Message, tools []llm.ToolSpec, options ...llm.Option) (<-chan llm.Fragment, error) {
	return nil, errors.New("not scripted")
}

func (s *scriptedLLM) generateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingIndex struct {
	deletes []string
	added   [][]vectorstore.Chunk
}

func (r *recordingIndex) Add(ctx context.Context, chunks []vectorstore.Chunk) error {
	r.added = append(r.added, chunks)
	return nil
}

func (r *recordingIndex) DeleteByDoc(ctx context.Context, docID string) (int64, error) {
	r.deletes = append(r.deletes, docID)
	return 0, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.EventType())
	}
	return types
}

type insightRepoStub struct {
	saved *entity.PaperInsight
	err   error
}

func (r *insightRepoStub) Upsert(ctx context.Context, insight *entity.PaperInsight) error {
	if r.err != nil {
		return r.err
	}
	r.saved = insight
	return nil
}

func (r *insightRepoStub) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PaperInsight, error) {
	return r.saved, nil
}

func newPipelineFixture(extractorText, llmResponse string, llmErr error) (*analysisService, *scriptedLLM, *recordingIndex, *recordingPublisher, *insightRepoStub) {
	provider := &scriptedLLM{response: llmResponse, err: llmErr}
	index := &recordingIndex{}
	pub := &recordingPublisher{}
	insights := &insightRepoStub{}

	svc := &analysisService{
		uowFactory:  &uowFactoryStub{uow: &uowStub{insights: insights}},
		llmProvider: provider,
		embedder:    &fixedEmbedder{},
		store:       index,
		extractor:   &stubExtractor{text: extractorText},
		publisher:   pub,
		textCache:   cache.New(time.Minute, time.Minute),
	}
	return svc, provider, index, pub, insights
}

func analysisMessage(t *testing.T, task dto.AnalysisTask) *message.Message {
	t.Helper()
	payload, err := json.Marshal(task)
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestProcessMessageAnalyzesDespiteExtractionFailure(t *testing.T) {
	svc, provider, index, pub, insights := newPipelineFixture(
		extract.Errorf("PDF unreachable"), `{"score": 40}`, nil,
	)
	msg := analysisMessage(t, dto.AnalysisTask{PaperId: 9, PdfUrl: "http://x/9.pdf", UserId: 3})

	svc.processMessage(context.Background(), msg)

	// All four agents still run on the error text.
	assert.Equal(t, 4, provider.generateCalls())
	require.NotNil(t, insights.saved)
	assert.Equal(t, 40, insights.saved.Score)

	// Only indexing is skipped.
	assert.Empty(t, index.deletes)
	assert.Empty(t, index.added)

	assert.Equal(t, []string{"ANALYSIS_COMPLETED"}, pub.eventTypes())
	select {
	case <-msg.Acked():
	default:
		t.Fatal("message was not acked")
	}
}

func TestProcessMessageIndexesOnSuccessfulExtraction(t *testing.T) {
	svc, _, index, pub, insights := newPipelineFixture(
		"This paper studies retrieval-augmented generation.", `{"score": 72}`, nil,
	)
	msg := analysisMessage(t, dto.AnalysisTask{PaperId: 5, PdfUrl: "http://x/5.pdf", UserId: 2})

	svc.processMessage(context.Background(), msg)

	require.NotNil(t, insights.saved)
	assert.Equal(t, 72, insights.saved.Score)
	assert.Equal(t, []string{"5"}, index.deletes)
	require.Len(t, index.added, 1)
	assert.Equal(t, []string{"ANALYSIS_COMPLETED"}, pub.eventTypes())
}

func TestProcessMessageDeadLettersOnAgentFailure(t *testing.T) {
	svc, _, _, pub, insights := newPipelineFixture(
		"fine text", "", errors.New("model unavailable"),
	)
	msg := analysisMessage(t, dto.AnalysisTask{PaperId: 7, PdfUrl: "http://x/7.pdf", UserId: 1})

	svc.processMessage(context.Background(), msg)

	assert.Nil(t, insights.saved)
	// Failure is surfaced to the user, then the message is dropped rather
	// than redelivered into the same broken dependency.
	assert.Equal(t, []string{"ANALYSIS_FAILED"}, pub.eventTypes())
	select {
	case <-msg.Acked():
	default:
		t.Fatal("message was not acked")
	}
	select {
	case <-msg.Nacked():
		t.Fatal("message was nacked")
	default:
	}
}

func TestProcessMessageDeadLettersOnPersistFailure(t *testing.T) {
	svc, _, _, pub, insights := newPipelineFixture("fine text", `{"score": 10}`, nil)
	insights.err = errors.New("db down")
	msg := analysisMessage(t, dto.AnalysisTask{PaperId: 8, PdfUrl: "http://x/8.pdf", UserId: 1})

	svc.processMessage(context.Background(), msg)

	assert.Equal(t, []string{"ANALYSIS_FAILED"}, pub.eventTypes())
	select {
	case <-msg.Acked():
	default:
		t.Fatal("message was not acked")
	}
}

func TestStripJSONFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "bare json untouched",
			input:    `{"score": 80}`,
			expected: `{"score": 80}`,
		},
		{
			name:     "json fence with language tag",
			input:    "```json\n{\"score\": 80}\n```",
			expected: `{"score": 80}`,
		},
		{
			name:     "fence without language tag",
			input:    "```\n{\"score\": 80}\n```",
			expected: `{"score": 80}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "  \n```json\n{\"score\": 80}\n```\n\n",
			expected: `{"score": 80}`,
		},
		{
			name:     "opening fence only",
			input:    "```json\n{\"score\": 80}",
			expected: `{"score": 80}`,
		},
		{
			name:     "single-line fenced json",
			input:    "```json {\"score\": 80}```",
			expected: `{"score": 80}`,
		},
		{
			name:     "bare fence marker",
			input:    "```",
			expected: "",
		},
		{
			name:     "inner backticks survive",
			input:    "```json\n{\"justification\": \"uses `gradient descent`\"}\n```",
			expected: `{"justification": "uses ` + "`gradient descent`" + `"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripJSONFence(tt.input))
		})
	}
}

func TestParseScoreResponse(t *testing.T) {
	t.Run("valid response", func(t *testing.T) {
		raw := "```json\n{\"score\": 78, \"novelty\": 80, \"rigor\": 75, \"clarity\": 82, \"justification\": \"solid work\"}\n```"

		score, details := parseScoreResponse(raw)

		assert.Equal(t, 78, score)
		assert.Equal(t, float64(80), details["novelty"])
		assert.Equal(t, "solid work", details["justification"])
		assert.NotContains(t, details, "error")
	})

	t.Run("invalid json yields zero score", func(t *testing.T) {
		raw := "The paper deserves a solid 85 out of 100."

		score, details := parseScoreResponse(raw)

		assert.Equal(t, 0, score)
		assert.Contains(t, details, "error")
		assert.Equal(t, raw, details["raw_response"])
	})

	t.Run("missing score field yields zero score", func(t *testing.T) {
		raw := `{"novelty": 70, "rigor": 60}`

		score, details := parseScoreResponse(raw)

		assert.Equal(t, 0, score)
		assert.Equal(t, "missing or non-numeric score field", details["error"])
		assert.Equal(t, raw, details["raw_response"])
	})

	t.Run("non-numeric score yields zero score", func(t *testing.T) {
		raw := `{"score": "high"}`

		score, details := parseScoreResponse(raw)

		assert.Equal(t, 0, score)
		assert.Contains(t, details, "error")
	})
}

func TestBuildAnalysisNotification(t *testing.T) {
	t.Run("completed event", func(t *testing.T) {
		notif, ok := buildAnalysisNotification("ANALYSIS_COMPLETED", map[string]interface{}{
			"paper_id": float64(42),
			"user_id":  float64(7),
			"score":    float64(81),
		})

		require.True(t, ok)
		assert.Equal(t, int64(7), notif.UserId)
		assert.Equal(t, "ANALYSIS_COMPLETED", notif.Type)
		assert.Equal(t, "ANALYSIS_COMPLETED:42", notif.DedupKey)
		assert.Contains(t, notif.Content, "score of 81")
		assert.NotEqual(t, "", notif.Id.String())
	})

	t.Run("failed event carries reason", func(t *testing.T) {
		notif, ok := buildAnalysisNotification("ANALYSIS_FAILED", map[string]interface{}{
			"paper_id": float64(42),
			"user_id":  float64(7),
			"reason":   "Error: extraction service returned status 502",
		})

		require.True(t, ok)
		assert.Equal(t, "ANALYSIS_FAILED:42", notif.DedupKey)
		assert.Contains(t, notif.Content, "extraction service returned status 502")
	})

	t.Run("unknown event skipped", func(t *testing.T) {
		_, ok := buildAnalysisNotification("USER_LOGIN", map[string]interface{}{
			"paper_id": float64(1),
			"user_id":  float64(1),
		})
		assert.False(t, ok)
	})

	t.Run("missing ids skipped", func(t *testing.T) {
		_, ok := buildAnalysisNotification("ANALYSIS_COMPLETED", map[string]interface{}{
			"paper_id": "42",
		})
		assert.False(t, ok)
	})
}
