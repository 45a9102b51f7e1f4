package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"paperinsight-be/internal/constant"
	"paperinsight-be/internal/dto"
	"paperinsight-be/internal/entity"
	"paperinsight-be/internal/repository/unitofwork"
	"paperinsight-be/pkg/embedding"
	"paperinsight-be/pkg/events"
	"paperinsight-be/pkg/extract"
	"paperinsight-be/pkg/llm"
	pktNats "paperinsight-be/pkg/nats"
	"paperinsight-be/pkg/utils"
	"paperinsight-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

const (
	// analysisTimeout bounds the four-agent fan-out for one paper.
	analysisTimeout = 10 * time.Minute

	chunkSize    = 512
	chunkOverlap = 50
)

type IAnalysisService interface {
	Consume(ctx context.Context) error
}

// paperIndex is the slice of the vector store the pipeline writes to.
type paperIndex interface {
	Add(ctx context.Context, chunks []vectorstore.Chunk) error
	DeleteByDoc(ctx context.Context, docID string) (int64, error)
}

type resultPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type analysisService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.Provider
	embedder    embedding.Provider
	store       paperIndex
	extractor   extract.Extractor
	publisher   resultPublisher
	// textCache keeps extracted paper text around so a retried message does
	// not hit the extraction service again.
	textCache *cache.Cache
}

func NewAnalysisService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.Provider,
	embedder embedding.Provider,
	store *vectorstore.Store,
	extractor extract.Extractor,
	publisher *pktNats.Publisher,
) IAnalysisService {
	svc := &analysisService{
		pubSub:      pubSub,
		topicName:   topicName,
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
		embedder:    embedder,
		store:       store,
		extractor:   extractor,
		textCache:   cache.New(30*time.Minute, 10*time.Minute),
	}
	if publisher != nil {
		svc.publisher = publisher
	}
	return svc
}

func (as *analysisService) Consume(ctx context.Context) error {
	messages, err := as.pubSub.Subscribe(ctx, as.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			as.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (as *analysisService) processMessage(ctx context.Context, msg *message.Message) {
	var task dto.AnalysisTask
	err := json.Unmarshal(msg.Payload, &task)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal analysis task: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing analysis for PaperId: %d", task.PaperId)

	// A failed extraction degrades the job instead of aborting it: the
	// agents still run on whatever text came back (possibly the error
	// string itself), only chunk indexing is skipped.
	text := as.paperText(ctx, task)
	extractFailed := extract.IsError(text)
	if extractFailed {
		log.Printf("[WARN] Extraction failed for paper %d, analyzing without index: %s", task.PaperId, text)
	}

	analysisCtx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	var summary, innovation, methods, scoreRaw string
	g, gCtx := errgroup.WithContext(analysisCtx)
	g.Go(func() error {
		var err error
		summary, err = as.llmProvider.Generate(gCtx, fmt.Sprintf(constant.SummaryAgentPrompt, text))
		return err
	})
	g.Go(func() error {
		var err error
		innovation, err = as.llmProvider.Generate(gCtx, fmt.Sprintf(constant.InnovationAgentPrompt, text))
		return err
	})
	g.Go(func() error {
		var err error
		methods, err = as.llmProvider.Generate(gCtx, fmt.Sprintf(constant.MethodologyAgentPrompt, text))
		return err
	})
	g.Go(func() error {
		var err error
		scoreRaw, err = as.llmProvider.Generate(gCtx, fmt.Sprintf(constant.ScoreAgentPrompt, text))
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("[ERROR] Agent fan-out failed for paper %d: %v", task.PaperId, err)
		as.failJob(task, err, msg)
		return
	}

	score, details := parseScoreResponse(scoreRaw)

	insight := &entity.PaperInsight{
		PaperId:          task.PaperId,
		UserId:           task.UserId,
		Summary:          summary,
		InnovationPoints: innovation,
		Methods:          methods,
		Score:            score,
		ScoreDetails:     details,
		CreatedAt:        time.Now(),
	}

	uow := as.uowFactory.NewUnitOfWork(ctx)
	if err := uow.PaperInsightRepository().Upsert(ctx, insight); err != nil {
		log.Printf("[ERROR] Failed to save insight for paper %d: %v", task.PaperId, err)
		as.failJob(task, err, msg)
		return
	}

	if extractFailed {
		log.Printf("[WARN] Skipping index for paper %d: no usable text", task.PaperId)
	} else if err := as.indexPaper(ctx, task, text); err != nil {
		// The insight is already saved; losing the index only degrades
		// chat retrieval, so we log and move on.
		log.Printf("[WARN] Failed to index paper %d: %v", task.PaperId, err)
	}

	as.publishResult(events.NewAnalysisCompleted(task.PaperId, task.UserId, float64(score)))

	log.Printf("[SUCCESS] Paper analyzed: PaperId=%d score=%d", task.PaperId, score)
	msg.Ack()
}

// failJob dead-letters the message after a best-effort failure
// notification. The in-memory queue redelivers nacked messages
// immediately, so requeueing a job that just hit a broken dependency
// would spin against it.
func (as *analysisService) failJob(task dto.AnalysisTask, cause error, msg *message.Message) {
	as.publishResult(events.NewAnalysisFailed(task.PaperId, task.UserId, cause.Error()))
	msg.Ack()
}

// paperText returns the extracted text for the task, serving repeats from
// the in-process cache. A sentinel error string is returned as-is and
// never cached, so a redelivery gets a fresh extraction attempt.
func (as *analysisService) paperText(ctx context.Context, task dto.AnalysisTask) string {
	key := strconv.FormatInt(task.PaperId, 10)
	if cached, found := as.textCache.Get(key); found {
		return cached.(string)
	}

	text := as.extractor.ExtractText(ctx, task.PdfUrl)
	if !extract.IsError(text) {
		as.textCache.Set(key, text, cache.DefaultExpiration)
	}
	return text
}

// indexPaper replaces the paper's chunks in the vector store.
func (as *analysisService) indexPaper(ctx context.Context, task dto.AnalysisTask, text string) error {
	docID := strconv.FormatInt(task.PaperId, 10)

	pieces := utils.SplitText(text, chunkSize, chunkOverlap)
	log.Printf("[INFO] Paper %d split into %d chunks", task.PaperId, len(pieces))

	chunks := make([]vectorstore.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		vec, err := as.embedder.Embed(ctx, piece)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", i, err)
		}
		chunks = append(chunks, vectorstore.Chunk{
			ID:        fmt.Sprintf("%s:%d", docID, i),
			DocID:     docID,
			ChunkID:   strconv.Itoa(i),
			Content:   piece,
			Embedding: vec,
			PaperID:   task.PaperId,
			UserID:    task.UserId,
		})
	}

	// Re-analysis replaces the previous index wholesale.
	if _, err := as.store.DeleteByDoc(ctx, docID); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}
	if len(chunks) > 0 {
		if err := as.store.Add(ctx, chunks); err != nil {
			return fmt.Errorf("store chunks: %w", err)
		}
	}
	return nil
}

func (as *analysisService) publishResult(event events.Event) {
	if as.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := as.publisher.Publish(pubCtx, event); err != nil {
		log.Printf("[WARN] Failed to publish %s: %v", event.EventType(), err)
	}
}

// stripJSONFence removes a single surrounding markdown code fence, which
// models frequently wrap JSON answers in despite instructions.
func stripJSONFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// Drop the opening fence ("```" or "```json") whether or not a
	// newline follows it.
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimPrefix(trimmed, "json")
	trimmed = strings.TrimSpace(trimmed)
	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}
	return trimmed
}

// parseScoreResponse extracts the overall score and the full breakdown from
// the scoring agent's output. On any parse failure the paper gets score 0
// and the details record what went wrong, so one stubborn model response
// never blocks the rest of the pipeline.
func parseScoreResponse(raw string) (int, map[string]any) {
	cleaned := stripJSONFence(raw)

	var details map[string]any
	if err := json.Unmarshal([]byte(cleaned), &details); err != nil {
		return 0, map[string]any{
			"error":        err.Error(),
			"raw_response": raw,
		}
	}

	score, ok := details["score"].(float64)
	if !ok {
		return 0, map[string]any{
			"error":        "missing or non-numeric score field",
			"raw_response": raw,
		}
	}
	return int(score), details
}
