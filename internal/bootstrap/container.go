package bootstrap

import (
	"context"
	"log"

	"hana-assistant-be/internal/config"
	"hana-assistant-be/internal/constant"
	"hana-assistant-be/internal/controller"
	"hana-assistant-be/internal/pkg/logger"
	"hana-assistant-be/internal/repository/implementation"
	"hana-assistant-be/internal/repository/memory"
	redisRepo "hana-assistant-be/internal/repository/redis"
	"hana-assistant-be/internal/service"
	"hana-assistant-be/internal/websocket"
	"hana-assistant-be/pkg/assistant"
	"hana-assistant-be/pkg/chatbot"
	"hana-assistant-be/pkg/corpus"
	"hana-assistant-be/pkg/events"
	"hana-assistant-be/pkg/history"
	"hana-assistant-be/pkg/i18n"
	"hana-assistant-be/pkg/llm"
	"hana-assistant-be/pkg/llm/factory"
	"hana-assistant-be/pkg/rag"
	"hana-assistant-be/pkg/rag/prompt"

	pktNats "hana-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController
	PaymentController   controller.IPaymentController

	// Background Services (Exposed for main.go to run)
	AssistantService service.IAssistantService
	ConsumerService  service.IConsumerService

	// WebSockets
	WebSocketHub *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires the application. db may be nil unless the transcript
// history lives in postgres.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	wsLogger := logger.NewIsolatedLogger(cfg.App.SocketLogFilePath)

	// 2. Event Bus
	// A single subscriber acks each message before the next one is sent, which
	// keeps the events of a surface in order.
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            1024,
			BlockPublishUntilSubscriberAck: true,
		},
		watermillLogger,
	)

	// 3. Knowledge base
	docs, err := corpus.LoadDir(cfg.Assistant.CorpusDir)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load corpus from %s: %v", cfg.Assistant.CorpusDir, err)
	}
	log.Printf("[INFO] Loaded %d corpus categories from %s", len(docs), cfg.Assistant.CorpusDir)

	triggers, err := rag.LoadTriggerSet(cfg.Assistant.TriggersFile)
	if err != nil {
		log.Printf("[WARN] %v. Using default regulatory triggers", err)
		triggers = rag.DefaultTriggers
	}

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		APIKey:   cfg.Ai.LLMAPIKey,
		Timeout:  cfg.Ai.LLMTimeout,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	backend := chatbot.NewBackend(llmProvider, chatbot.WithProviderOptions(llm.WithTemperature(cfg.Ai.Temperature)))

	// 4. Infrastructure
	// NATS
	var eventPublisher events.Publisher
	var eventSubscriber service.EventSubscriber
	var closers []func()

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		closers = append(closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		eventSubscriber = natsSub
		closers = append(closers, natsSub.Close)
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
	closers = append(closers, func() { _ = rdb.Close() })

	// Transcript history
	var transcripts history.KeyValueStore
	switch cfg.Assistant.HistoryBackend {
	case "postgres":
		if db == nil {
			log.Fatalf("[FATAL] ASSISTANT_HISTORY_BACKEND=postgres needs DB_CONNECTION_STRING")
		}
		transcripts = implementation.NewTranscriptRepository(db)
	case "redis":
		transcripts = redisRepo.NewTranscriptRepository(rdb, cfg.Assistant.HistoryTTL)
	default:
		transcripts = memory.NewTranscriptRepository(cfg.Assistant.HistoryTTL)
	}
	log.Printf("[INFO] Using transcript history backend: %s", cfg.Assistant.HistoryBackend)

	// WebSocket Hub
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Services
	publisherService := service.NewPublisherService(cfg.App.EventTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.App.EventTopic, wsHub, wsLogger)

	assistantService := service.NewAssistantService(service.AssistantDependencies{
		Sessions:   assistant.FromBackend(backend),
		Scorer:     rag.NewScorer(triggers),
		Augmenter:  prompt.NewAugmenter(prompt.DefaultTemplates),
		Corpus:     docs,
		Translator: i18n.NewStaticTranslator(constant.Catalog),
		History:    history.NewStore(transcripts),
		Sockets:    wsHub,
		Bus:        publisherService,
		Events:     eventPublisher,
		Subscriber: eventSubscriber,
		Logger:     sysLogger,
	}, cfg.Assistant, cfg.Payment.Required)
	wsHub.Handle(assistantService)

	paymentService := service.NewPaymentService(
		cfg.Payment,
		service.NewSnapClient(cfg.Payment),
		assistantService,
		eventPublisher,
		sysLogger,
	)

	// 6. Controllers
	return &Container{
		AssistantController: controller.NewAssistantController(assistantService, wsHub, cfg.Auth.JwtSecret),
		PaymentController:   controller.NewPaymentController(paymentService, cfg.Auth.JwtSecret, sysLogger),

		AssistantService: assistantService,
		ConsumerService:  consumerService,
		WebSocketHub:     wsHub,
		Logger:           sysLogger,

		closers: closers,
	}
}

// Close releases the broker and cache connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
