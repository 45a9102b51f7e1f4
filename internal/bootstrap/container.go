package bootstrap

import (
	"context"
	"log"

	"paperinsight-be/internal/config"
	"paperinsight-be/internal/constant"
	"paperinsight-be/internal/controller"
	"paperinsight-be/internal/handler"
	"paperinsight-be/internal/pkg/logger"
	"paperinsight-be/internal/repository/unitofwork"
	"paperinsight-be/internal/service"
	"paperinsight-be/internal/websocket"
	"paperinsight-be/pkg/agent"
	"paperinsight-be/pkg/embedding"
	"paperinsight-be/pkg/extract"
	"paperinsight-be/pkg/llm/factory"
	"paperinsight-be/pkg/retrieval"
	"paperinsight-be/pkg/vectorstore"

	implementationRepo "paperinsight-be/internal/repository/implementation"
	pktNats "paperinsight-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController  controller.IChatController
	PaperController controller.IPaperController

	// Background Services (Exposed for main.go to run)
	AnalysisService service.IAnalysisService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider, err := embedding.NewProvider(embedding.Config{
		Provider:   cfg.Ai.EmbeddingProvider,
		BaseURL:    cfg.Ai.OllamaBaseURL,
		APIKey:     cfg.Ai.GoogleGeminiKey,
		Model:      cfg.Ai.EmbeddingModel,
		Dimensions: cfg.Ai.EmbeddingDimensions,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Embedding Provider: %v", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s, %d dims)",
		cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel, cfg.Ai.EmbeddingDimensions)

	llmBaseURL := cfg.Ai.LLMBaseURL
	if llmBaseURL == "" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL,
		cfg.Ai.LLMAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Vector store shares the main gorm connection.
	chunkStore, err := vectorstore.New(db, vectorstore.Config{
		Table:      "paper_chunks",
		Dimensions: cfg.Ai.EmbeddingDimensions,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize vector store: %v", err)
	}

	retriever := retrieval.NewService(embeddingProvider, chunkStore)
	extractor := extract.NewHTTPExtractor(cfg.Ai.ExtractorBaseURL)

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Queue.AnalysisTopic)
	analysisService := service.NewAnalysisService(
		pubSub,
		cfg.Queue.AnalysisTopic,
		uowFactory,
		llmProvider,
		embeddingProvider,
		chunkStore,
		extractor,
		natsPub,
	)

	sessionStore := implementationRepo.NewAgentSessionRepository(db)
	registry := agent.NewSessionRegistry()

	chatService := service.NewChatService(
		uowFactory,
		llmProvider,
		retriever,
		sessionStore,
		registry,
		service.AgentSettings{
			SystemPrompt:   constant.ChatAgentSystemPrompt,
			MaxIterations:  cfg.Agent.MaxIterations,
			TokenRatio:     cfg.Agent.TokenRatio,
			LastKeep:       cfg.Agent.LastKeep,
			ContextWindow:  cfg.Agent.ContextWindow,
			RetrievalLimit: cfg.Agent.RetrievalLimit,
			ScoreThreshold: cfg.Agent.ScoreThreshold,
		},
		sysLogger,
	)

	paperService := service.NewPaperService(uowFactory, publisherService, sysLogger)

	// Notification Domain
	notifService := service.NewNotificationService(uowFactory, natsSub, wsHub, wsLogger) // Hub implements NotificationDelivery
	if natsSub != nil {
		go notifService.Start()
	}

	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	// 6. Controllers
	return &Container{
		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
		ChatController:      controller.NewChatController(chatService),
		PaperController:     controller.NewPaperController(paperService),

		AnalysisService: analysisService,
	}
}
