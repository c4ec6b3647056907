package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"vision_gateway/internal/billing"
	"vision_gateway/internal/config"
	"vision_gateway/internal/ledger"
	"vision_gateway/internal/logging"
	"vision_gateway/internal/metrics"
	"vision_gateway/internal/middleware"
	"vision_gateway/internal/payment"
	"vision_gateway/internal/pipeline"
	"vision_gateway/internal/providers"
	"vision_gateway/internal/queue"
	"vision_gateway/internal/storage"
	"vision_gateway/internal/tiering"
)

// Dependencies aggregates all services the HTTP layer needs.
type Dependencies struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	Resolver *tiering.Resolver
	Issuer   *payment.Issuer
	Ledger   ledger.Ledger
	Spend    billing.SpendTracker
	Metrics  *metrics.Metrics
	Log      *logrus.Logger

	RequestLogger *logging.RequestLogger

	// Optional infrastructure; nil when running without Postgres/Redis.
	DB           *storage.DB
	Redis        *redis.Client
	LedgerWorker *storage.LedgerQueueWorker
}

// NewRouter creates an HTTP router with all dependencies wired up.
//
// Postgres and Redis are both optional: without DATABASE_URL the ledger is
// kept in memory, and without REDIS_ADDRESS the ledger queue and spend
// counters fall back to in-process implementations. Without GEMINI_API_KEY
// the mock provider serves as the primary.
func NewRouter(cfg *config.Config, log *logrus.Logger) (*http.ServeMux, *Dependencies, error) {
	if log == nil {
		log = logging.NewLogger()
	}

	var db *storage.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = storage.NewDB(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.EnsureSchema(context.Background()); err != nil {
			return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		var err error
		redisClient, err = storage.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
	}

	var spend billing.SpendTracker
	if redisClient != nil {
		spend = billing.NewRedisSpendTracker(redisClient)
	} else {
		spend = billing.NewNoopSpendTracker()
	}

	// The ledger is durable when Postgres is configured: appends go through
	// a queue drained by a batch worker, with Redis backing the queue when
	// available.
	var (
		txLedger     ledger.Ledger
		ledgerWorker *storage.LedgerQueueWorker
	)
	if db != nil {
		queueCfg := queue.DefaultConfig("ledger")

		var txQueue queue.Queue
		var txDLQ queue.DeadLetterQueue
		if redisClient != nil {
			var err error
			txQueue, err = queue.NewRedisQueue(redisClient, queueCfg)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create ledger queue: %w", err)
			}
			txDLQ, err = queue.NewRedisDeadLetterQueue(redisClient, queueCfg)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create ledger DLQ: %w", err)
			}
		} else {
			txQueue = queue.NewMemoryQueue(queueCfg)
			txDLQ = queue.NewMemoryDeadLetterQueue()
		}

		repo := storage.NewLedgerRepository(db)
		ledgerWorker = storage.NewLedgerQueueWorker(txQueue, txDLQ, repo, queueCfg, log)
		ledgerWorker.Start(context.Background())

		txLedger = ledger.NewStoreLedger(txQueue, repo, spend)
	} else {
		txLedger = ledger.NewMemoryLedger()
	}

	// Provider selection: Gemini when a key is configured, mock otherwise.
	// The mock also serves as the free-tier fallback either way.
	fallback := providers.NewMockProvider()
	var provider providers.Provider = fallback
	if cfg.Gemini.APIKey != "" {
		gemini, err := providers.NewGeminiProvider(cfg.Gemini)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Gemini provider: %w", err)
		}
		provider = gemini
	}

	resolver := tiering.NewResolver(cfg.Pricing)
	issuer := payment.NewIssuer(cfg.Payment)
	m := metrics.New()

	pipe := pipeline.New(pipeline.Options{
		Resolver: resolver,
		Issuer:   issuer,
		Verifier: payment.NewFacilitatorClient(cfg.Payment),
		Provider: provider,
		Fallback: fallback,
		Engine:   billing.NewEngine(resolver),
		Ledger:   txLedger,
		Metrics:  m,
		Logger:   log,
	})

	deps := &Dependencies{
		Config:        cfg,
		Pipeline:      pipe,
		Resolver:      resolver,
		Issuer:        issuer,
		Ledger:        txLedger,
		Spend:         spend,
		Metrics:       m,
		Log:           log,
		RequestLogger: logging.NewRequestLogger(cfg.RequestLogger, 1024),
		DB:            db,
		Redis:         redisClient,
		LedgerWorker:  ledgerWorker,
	}

	mux := http.NewServeMux()
	registerRoutes(mux, deps, cfg)

	return mux, deps, nil
}

func registerRoutes(mux *http.ServeMux, deps *Dependencies, cfg *config.Config) {
	// Analysis endpoints - public; the pipeline enforces payment by tier
	mux.HandleFunc("/analyze-info", deps.handleAnalyzeInfo)
	mux.HandleFunc("/analyze", deps.handleAnalyze)
	mux.HandleFunc("/analyze-premium", deps.handleAnalyzePremium)
	mux.HandleFunc("/analyze-enterprise", deps.handleAnalyzeEnterprise)

	// x402 discovery and payment terms - public
	mux.HandleFunc("/register", deps.handleRegister)
	mux.HandleFunc("/get-payment-details", deps.handlePaymentDetails)

	// Health check endpoint - public
	mux.HandleFunc("/health", deps.handleHealth)

	// Metrics endpoint - public
	mux.Handle("/metrics", deps.Metrics.HTTPHandler())

	// Admin authentication endpoint - public (no middleware)
	mux.HandleFunc("/admin/auth/login", deps.handleAdminLogin)

	// Analytics endpoints - protected with AdminJWTMiddleware
	adminJWT := middleware.AdminJWTMiddleware(cfg)
	mux.Handle("/admin/stats", adminJWT(http.HandlerFunc(deps.handleAdminStats)))
	mux.Handle("/admin/transactions", adminJWT(http.HandlerFunc(deps.handleAdminTransactions)))
}

// Shutdown stops background workers and flushes the audit log.
func (deps *Dependencies) Shutdown() {
	if deps.LedgerWorker != nil {
		_ = deps.LedgerWorker.Stop()
	}
	if deps.RequestLogger != nil {
		deps.RequestLogger.Shutdown()
	}
	if deps.DB != nil {
		_ = deps.DB.Close()
	}
	if deps.Redis != nil {
		_ = deps.Redis.Close()
	}
}
