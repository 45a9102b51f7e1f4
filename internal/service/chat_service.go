package service

import (
	"context"
	"fmt"
	"time"

	"paperinsight-be/internal/dto"
	"paperinsight-be/internal/entity"
	"paperinsight-be/internal/pkg/logger"
	"paperinsight-be/internal/repository/specification"
	"paperinsight-be/internal/repository/unitofwork"
	"paperinsight-be/pkg/agent"
	"paperinsight-be/pkg/llm"
	"paperinsight-be/pkg/retrieval"

	"github.com/google/uuid"
)

// SessionNamespace scopes persisted conversation state for this service.
const SessionNamespace = "paper_insight"

const defaultSessionTitle = "New chat"

const titleMaxRunes = 50

// AgentSettings is the data-driven agent configuration: prompt, loop bound,
// equipped tool groups and memory budget.
type AgentSettings struct {
	SystemPrompt   string
	MaxIterations  int
	ToolGroups     []string
	TokenRatio     float64
	LastKeep       int
	ContextWindow  int
	RetrievalLimit int
	ScoreThreshold float64
}

// IChatService is the chat orchestrator: sessions, streaming runs, history.
type IChatService interface {
	CreateSession(ctx context.Context, userId int64, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId int64) ([]*dto.GetAllSessionsResponse, error)
	DeleteSession(ctx context.Context, userId int64, sessionId uuid.UUID) error
	GetChatHistory(ctx context.Context, userId int64, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	StreamChat(ctx context.Context, userId int64, sessionId uuid.UUID, userQuery string) (<-chan dto.ChatEvent, error)
	StopChat(sessionId uuid.UUID)
}

type chatService struct {
	uowFactory   unitofwork.RepositoryFactory
	llmProvider  llm.Provider
	retriever    *retrieval.Service
	sessionStore agent.SessionStore
	registry     *agent.SessionRegistry
	settings     AgentSettings
	logger       logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.Provider,
	retriever *retrieval.Service,
	sessionStore agent.SessionStore,
	registry *agent.SessionRegistry,
	settings AgentSettings,
	log logger.ILogger,
) IChatService {
	if len(settings.ToolGroups) == 0 {
		settings.ToolGroups = []string{"paper_rag"}
	}
	if settings.RetrievalLimit <= 0 {
		settings.RetrievalLimit = 5
	}
	return &chatService{
		uowFactory:   uowFactory,
		llmProvider:  llmProvider,
		retriever:    retriever,
		sessionStore: sessionStore,
		registry:     registry,
		settings:     settings,
		logger:       log,
	}
}

func (s *chatService) CreateSession(ctx context.Context, userId int64, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	title := request.Title
	if title == "" {
		title = defaultSessionTitle
	}
	session := &entity.ChatSession{
		PaperId: request.PaperId,
		UserId:  userId,
		Title:   title,
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	return &dto.CreateSessionResponse{Id: session.Id}, nil
}

func (s *chatService) GetAllSessions(ctx context.Context, userId int64) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}

	out := make([]*dto.GetAllSessionsResponse, len(sessions))
	for i, session := range sessions {
		out[i] = &dto.GetAllSessionsResponse{
			Id:            session.Id,
			PaperId:       session.PaperId,
			Title:         session.Title,
			LastMessageAt: session.LastMessageAt,
			CreatedAt:     session.CreatedAt,
			UpdatedAt:     session.UpdatedAt,
		}
	}
	return out, nil
}

func (s *chatService) DeleteSession(ctx context.Context, userId int64, sessionId uuid.UUID) error {
	if _, err := s.ownedSession(ctx, userId, sessionId); err != nil {
		return err
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().Delete(ctx, sessionId)
}

// ownedSession loads a session and enforces ownership, distinguishing a
// session that does not exist from one that belongs to another user.
func (s *chatService) ownedSession(ctx context.Context, userId int64, sessionId uuid.UUID) (*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
	)
	if err != nil {
		return nil, fmt.Errorf("find chat session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.UserId != userId {
		return nil, ErrSessionForbidden
	}
	return session, nil
}

// toolGroups assembles the per-request tool groups, binding the retrieval
// tool to the session's paper and user so the model can only search inside
// that scope.
func (s *chatService) toolGroups(paperId, userId int64) *agent.GroupRegistry {
	reg := agent.NewGroupRegistry()
	reg.Register(agent.ToolGroup{
		Name:          "paper_rag",
		Description:   "Retrieval over the indexed chunks of the current paper",
		InitialActive: true,
		Tools: []agent.Tool{{
			Name:        "search_paper",
			Description: "Search the current paper for passages relevant to a query. Returns the most similar chunks.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "What to look for in the paper",
					},
				},
				"required": []string{"query"},
			},
			Run: func(ctx context.Context, input map[string]any) (string, error) {
				query, _ := input["query"].(string)
				if query == "" {
					return "", fmt.Errorf("query is required")
				}
				chunks, err := s.retriever.Retrieve(ctx, query, retrieval.Options{
					Limit:          s.settings.RetrievalLimit,
					ScoreThreshold: s.settings.ScoreThreshold,
					PaperID:        &paperId,
					UserID:         &userId,
				})
				if err != nil {
					return "", err
				}
				if len(chunks) == 0 {
					return "No relevant passages found.", nil
				}
				out := ""
				for i, c := range chunks {
					out += fmt.Sprintf("[%d] %s\n\n", i+1, c.Content)
				}
				return out, nil
			},
		}},
	})
	return reg
}

func truncateTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMaxRunes {
		return text
	}
	return string(runes[:titleMaxRunes])
}

// StreamChat runs one chat turn for the session and streams chat events
// until a terminal COMPLETE. Starting a session that is already running
// interrupts the old run first; conversation state is saved on every
// termination path.
func (s *chatService) StreamChat(ctx context.Context, userId int64, sessionId uuid.UUID, userQuery string) (<-chan dto.ChatEvent, error) {
	session, err := s.ownedSession(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	// Title backfill from the first user message, plus activity touch.
	now := time.Now()
	session.LastMessageAt = &now
	if session.Title == "" || session.Title == defaultSessionTitle {
		session.Title = truncateTitle(userQuery)
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		s.logger.Warn("ChatService", "failed to touch session", map[string]interface{}{
			"session_id": sessionId.String(), "error": err.Error(),
		})
	}

	toolkit, err := agent.NewToolkit(s.toolGroups(session.PaperId, userId), s.settings.ToolGroups)
	if err != nil {
		return nil, err
	}

	state, err := s.sessionStore.Load(ctx, SessionNamespace, sessionId.String())
	if err != nil {
		return nil, err
	}

	runCtx, finish := s.registry.Start(ctx, sessionId.String())

	runner := agent.NewReactAgent(agent.Config{
		Provider:      s.llmProvider,
		SystemPrompt:  s.settings.SystemPrompt,
		MaxIterations: s.settings.MaxIterations,
		Memory: agent.NewMemory(agent.MemoryConfig{
			TokenRatio:    s.settings.TokenRatio,
			LastKeep:      s.settings.LastKeep,
			ContextWindow: s.settings.ContextWindow,
		}, s.llmProvider),
	}, toolkit)

	events := runner.Run(runCtx, state, userQuery)
	out := make(chan dto.ChatEvent, 32)

	go func() {
		defer close(out)
		defer finish()
		// State is persisted regardless of how the run ended; the save uses
		// its own context because runCtx may already be cancelled.
		defer func() {
			saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.sessionStore.Save(saveCtx, SessionNamespace, sessionId.String(), state); err != nil {
				s.logger.Error("ChatService", "failed to save conversation state", map[string]interface{}{
					"session_id": sessionId.String(), "error": err.Error(),
				})
			}
		}()

		adapter := NewEventAdapter()
		failed := false
		for ev := range events {
			if ev.Err != nil {
				s.logger.Error("ChatService", "chat run failed", map[string]interface{}{
					"session_id": sessionId.String(), "error": ev.Err.Error(),
				})
				for _, frame := range adapter.Fail("CHAT_RUN_FAILED", ev.Err.Error()) {
					out <- frame
				}
				failed = true
				break
			}
			for _, frame := range adapter.Convert(ev) {
				out <- frame
			}
		}
		if failed {
			return
		}
		if runCtx.Err() != nil {
			for _, frame := range adapter.Interrupt() {
				out <- frame
			}
			return
		}
		out <- adapter.Complete()
	}()

	return out, nil
}

// StopChat interrupts the session's active run. No active run, no effect.
func (s *chatService) StopChat(sessionId uuid.UUID) {
	s.registry.Interrupt(sessionId.String())
}

// GetChatHistory reconstructs the visible conversation: system messages and
// interruption notices are filtered out, tool results are folded into the
// assistant turn that requested them, and block order inside a turn is
// thinking, tool_use, tool_result, text.
func (s *chatService) GetChatHistory(ctx context.Context, userId int64, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	if _, err := s.ownedSession(ctx, userId, sessionId); err != nil {
		return nil, err
	}
	state, err := s.sessionStore.Load(ctx, SessionNamespace, sessionId.String())
	if err != nil {
		return nil, err
	}

	var history []*dto.GetChatHistoryResponse
	for _, msg := range state.Messages {
		if msg.Role == agent.RoleSystem || msg.IsInterruptNotice() {
			continue
		}
		if msg.Role == agent.RoleTool && len(history) > 0 && history[len(history)-1].Role == agent.RoleAssistant {
			last := history[len(history)-1]
			last.Blocks = insertBeforeText(last.Blocks, toHistoryBlocks(msg.Blocks))
			continue
		}
		history = append(history, &dto.GetChatHistoryResponse{
			Role:   msg.Role,
			Blocks: toHistoryBlocks(msg.Blocks),
		})
	}
	return history, nil
}

func toHistoryBlocks(blocks []agent.Block) []dto.HistoryBlock {
	out := make([]dto.HistoryBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, dto.HistoryBlock{
			Type:       string(b.Type),
			Text:       b.Text,
			Thinking:   b.Thinking,
			ToolId:     b.ToolID,
			ToolName:   b.ToolName,
			ToolInput:  b.ToolInput,
			ToolResult: b.ToolResult,
		})
	}
	return out
}

// insertBeforeText splices extra blocks in front of the turn's text blocks
// so the final order stays thinking, tool_use, tool_result, text.
func insertBeforeText(blocks, extra []dto.HistoryBlock) []dto.HistoryBlock {
	idx := len(blocks)
	for i, b := range blocks {
		if b.Type == string(agent.BlockText) {
			idx = i
			break
		}
	}
	out := make([]dto.HistoryBlock, 0, len(blocks)+len(extra))
	out = append(out, blocks[:idx]...)
	out = append(out, extra...)
	out = append(out, blocks[idx:]...)
	return out
}
