package bootstrap

import (
	"context"
	"fmt"
	"log"

	"care-triage-be/internal/config"
	"care-triage-be/internal/controller"
	"care-triage-be/internal/pkg/logger"
	"care-triage-be/internal/repository/contract"
	"care-triage-be/internal/repository/implementation"
	"care-triage-be/internal/repository/memory"
	"care-triage-be/internal/service"
	"care-triage-be/internal/websocket"
	"care-triage-be/pkg/careflow/lock"
	"care-triage-be/pkg/careflow/stage"
	"care-triage-be/pkg/careflow/workflow"
	"care-triage-be/pkg/database"
	"care-triage-be/pkg/events"
	"care-triage-be/pkg/llm/factory"
	"care-triage-be/pkg/reasoning"

	pktNats "care-triage-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// CaseEventsTopic is the in-process bus topic carrying workflow events.
const CaseEventsTopic = "care_triage.case_events"

type Container struct {
	// Controllers
	TriageController controller.ITriageController

	// Background Services (started by Start)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Engine *workflow.Engine
	Store  contract.CaseRepository
	Logger *logger.ZapLogger

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	rdb     *redis.Client
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	store, err := NewCaseStore(cfg.Store, sysLogger)
	if err != nil {
		return nil, err
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Reasoning collaborator
	llmProvider, err := factory.NewLLMProvider(factory.ProviderConfig{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  providerBaseURL(cfg.Ai),
		APIKey:   providerAPIKey(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	reasoningClient := reasoning.NewClient(llmProvider, reasoning.Config{
		Model:   cfg.Ai.LLMModel,
		Timeout: cfg.Ai.RequestTimeout,
	}, sysLogger)

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// Redis
	rdb := connectRedis(cfg.App.RedisURL)

	locker, err := newLocker(cfg.Workflow, rdb, sysLogger)
	if err != nil {
		return nil, err
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/live_feed.log")
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 5. Workflow
	graph, err := workflow.NewDefaultGraph(
		stage.NewSymptomExtractionStage(reasoningClient, sysLogger),
		stage.NewSeverityClassificationStage(reasoningClient, sysLogger),
		stage.NewActionPlanningStage(nil),
		stage.NewSummaryGenerationStage(reasoningClient, cfg.Ai.SummaryEnhancementEnable, sysLogger),
	)
	if err != nil {
		return nil, fmt.Errorf("build workflow graph: %w", err)
	}

	publisherService := service.NewPublisherService(CaseEventsTopic, pubSub)
	engine := workflow.NewEngine(graph, store, sysLogger,
		workflow.WithLocker(locker),
		workflow.WithEventSink(publisherService),
	)

	// A nil *Publisher must not become a non-nil events.Sink.
	var relay events.Sink
	if natsPub != nil {
		relay = natsPub
	}
	consumerService := service.NewConsumerService(pubSub, CaseEventsTopic, wsHub, relay, sysLogger)

	triageService := service.NewTriageService(engine, store, sysLogger)

	// 6. Controllers
	return &Container{
		TriageController: controller.NewTriageController(triageService, wsHub, wsLogger),
		ConsumerService:  consumerService,
		WebSocketHub:     wsHub,
		Engine:           engine,
		Store:            store,
		Logger:           sysLogger,
		pubSub:           pubSub,
		natsPub:          natsPub,
		rdb:              rdb,
	}, nil
}

// Start launches the hub and the bus consumer. Both stop when ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)
	return c.ConsumerService.Consume(ctx)
}

func (c *Container) Close() {
	if err := c.pubSub.Close(); err != nil {
		log.Printf("[WARN] Failed to close event bus: %v", err)
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.Logger.Sync()
}

// NewCaseStore builds the case repository selected by CASE_STORE_DRIVER.
func NewCaseStore(cfg config.StoreConfig, log logger.ILogger) (contract.CaseRepository, error) {
	switch cfg.Driver {
	case "file", "":
		store, err := implementation.NewCaseFileRepository(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open case directory %s: %w", cfg.DataDir, err)
		}
		log.Info("CaseStore", "Using file case store", map[string]interface{}{"dir": cfg.DataDir})
		return store, nil
	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Connection, false)
		if err != nil {
			return nil, fmt.Errorf("connect case database: %w", err)
		}
		log.Info("CaseStore", "Using postgres case store", nil)
		return implementation.NewCaseRepository(db), nil
	case "memory":
		log.Warn("CaseStore", "Using in-memory case store; cases are lost on restart", nil)
		return memory.NewCaseRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported case store driver: %s", cfg.Driver)
	}
}

func newLocker(cfg config.WorkflowConfig, rdb *redis.Client, log logger.ILogger) (lock.Locker, error) {
	switch cfg.LockBackend {
	case "local", "":
		return lock.NewLocalLocker(), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis lock backend selected but redis is unavailable")
		}
		return lock.NewRedisLocker(rdb, cfg.LockTTL, log), nil
	default:
		return nil, fmt.Errorf("unsupported case lock backend: %s", cfg.LockBackend)
	}
}

// connectRedis returns nil when Redis cannot be reached; the hub then
// stays single-instance.
func connectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func providerBaseURL(ai config.AIConfig) string {
	switch ai.LLMProvider {
	case "openai":
		return ai.OpenAIBaseURL
	case "huggingface":
		return ""
	default:
		return ai.OllamaBaseURL
	}
}

func providerAPIKey(cfg *config.Config) string {
	switch cfg.Ai.LLMProvider {
	case "openai":
		return cfg.Keys.OpenAI
	case "huggingface":
		return cfg.Keys.HuggingFace
	default:
		return ""
	}
}
