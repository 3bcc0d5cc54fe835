package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moneypenny/pennygate/internal/config"
	"github.com/moneypenny/pennygate/internal/handler"
	"github.com/moneypenny/pennygate/internal/middleware"
	"github.com/moneypenny/pennygate/internal/oracle"
	"github.com/moneypenny/pennygate/internal/pkg/logger"
	"github.com/moneypenny/pennygate/internal/policy"
	"github.com/moneypenny/pennygate/internal/repository"
	"github.com/moneypenny/pennygate/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(cfg.Log.Level)

	// 3. Load Static Risk Policy (startup precondition)
	var basePolicy *policy.Policy
	if cfg.Policy.Inline != "" {
		basePolicy, err = policy.Parse([]byte(cfg.Policy.Inline))
	} else {
		basePolicy, err = policy.LoadFile(cfg.Policy.Path)
	}
	if err != nil {
		log.Fatalf("Failed to load risk policy: %v", err)
	}

	// 4. Initialize Persistence (Postgres > Memory)
	var store repository.Store
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err == nil {
			logger.Info("✅ Connected to PostgreSQL")
			store = repository.NewPostgres(db)
		} else {
			logger.Error("⚠️ Failed to connect to DB, falling back to memory", "error", err)
		}
	}
	if store == nil {
		store = repository.NewMemory()
	}

	// Idempotency Store (Redis > Memory)
	var idempotencyStore repository.IdempotencyStore
	if cfg.Redis.Addr != "" {
		redisClient, err := repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("✅ Connected to Redis")
			ttl := time.Duration(cfg.Redis.IdempotencyTTLSeconds) * time.Second
			idempotencyStore = repository.NewRedisIdempotencyStore(redisClient, ttl)
		} else {
			logger.Error("⚠️ Failed to connect to Redis, falling back to memory", "error", err)
		}
	}
	if idempotencyStore == nil {
		idempotencyStore = repository.NewInMemIdempotencyStore()
	}

	// 5. Initialize Core Services
	tenantManager := service.NewTenantManager(cfg)
	policyStore := policy.NewStore(basePolicy, store)
	estimator := service.NewCostEstimator(cfg.Fees.FeesBps, basePolicy, store)
	forwarder := service.NewHTTPForwarder(cfg.Forwarder.Endpoint, time.Duration(cfg.Forwarder.TimeoutMs)*time.Millisecond)
	evaluator := service.NewEvaluator(store, policyStore, estimator, forwarder)
	paramSvc := service.NewParamService(store, policyStore)

	auditSvc, err := service.NewAuditService("./logs")
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}

	var gasOracle *oracle.GasOracle
	if cfg.Oracle.Enabled {
		gasOracle = oracle.NewGasOracle(store, cfg.Oracle.Chains,
			time.Duration(cfg.Oracle.PeriodMs)*time.Millisecond,
			time.Duration(cfg.Oracle.LookbackMin)*time.Minute)
		gasOracle.Start()
	}

	// 6. Initialize Handlers
	intentHandler := handler.NewIntentHandler(evaluator)
	paramHandler := handler.NewParamHandler(paramSvc, policyStore)
	webhookHandler := handler.NewWebhookHandler(store)
	auditHandler := handler.NewAuditHandler(store)
	adminHandler := handler.NewAdminHandler(auditSvc)

	// 7. Setup Router
	r := gin.Default()

	// Global Middleware
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware(auditSvc))

	// Health Check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "pennygate"})
	})

	// Metrics Endpoint
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API V1 Routes
	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg, tenantManager))
	v1.Use(middleware.RateLimitMiddleware(tenantManager))
	{
		v1.POST("/propose_intent", middleware.IdempotencyMiddleware(idempotencyStore), intentHandler.ProposeIntent)
		v1.POST("/set_param", paramHandler.SetParam)
		v1.GET("/config", paramHandler.GetConfig)
		v1.GET("/receipts", auditHandler.ListReceipts)
		v1.GET("/governance", auditHandler.ListGovernance)
	}

	// Operator-only surface
	admin := r.Group("/admin")
	admin.Use(middleware.AdminMiddleware(cfg))
	{
		admin.GET("/audit", adminHandler.AuditTrail)
	}

	// Execution agent callbacks, HMAC-gated, no tenant auth
	webhooks := r.Group("/webhooks")
	webhooks.Use(middleware.HmacMiddleware(cfg.Webhook.HmacSecret, time.Duration(cfg.Webhook.ToleranceSeconds)*time.Second))
	{
		webhooks.POST("/execution", webhookHandler.ExecutionCallback)
	}

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("🚀 PennyGate started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if gasOracle != nil {
		gasOracle.Stop()
	}
	auditSvc.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}
