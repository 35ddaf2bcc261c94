package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/buildtally/bidlevel/internal/cache"
	"github.com/buildtally/bidlevel/internal/database"
	"github.com/buildtally/bidlevel/internal/errors"
	"github.com/buildtally/bidlevel/internal/evaluation"
	"github.com/buildtally/bidlevel/internal/middleware"
	"github.com/buildtally/bidlevel/internal/monitoring"
	"github.com/buildtally/bidlevel/internal/ratelimit"
	"github.com/buildtally/bidlevel/internal/security"
	"github.com/buildtally/bidlevel/internal/types"
)

// evaluateRequest is the wire shape of an evaluation run. Config is optional;
// omitting it runs with stock settings.
type evaluateRequest struct {
	ProjectName  string                               `json:"project_name,omitempty"`
	Bids         []types.Bid                          `json:"bids"`
	Estimate     *float64                             `json:"estimate,omitempty"`
	Criteria     []evaluation.Criterion               `json:"criteria,omitempty"`
	Ratings      map[string]map[string]float64        `json:"ratings,omitempty"`
	Requirements evaluation.QualificationRequirements `json:"requirements"`
	Config       *evaluation.Config                   `json:"config,omitempty"`
}

// server bundles the handler dependencies so routes stay testable
type server struct {
	repo        *database.Repository
	db          *database.DB
	cache       *cache.Cache
	limiter     *ratelimit.RateLimiter
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	compression *middleware.CompressionMiddleware
	clock       func() time.Time
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	port := getEnvOrDefault("PORT", "8080")
	redisConfig := ratelimit.DefaultRedisConfig()
	redisConfig.Addr = os.Getenv("REDIS_ADDR")
	redisConfig.Password = os.Getenv("REDIS_PASSWORD")
	redisConfig.DB = getEnvIntOrDefault("REDIS_DB", 0)
	redisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", redisConfig.PoolSize)
	redisConfig.MinIdleConns = getEnvIntOrDefault("REDIS_MIN_IDLE_CONNS", redisConfig.MinIdleConns)
	cacheTTL := time.Duration(getEnvIntOrDefault("CACHE_TTL_MINUTES", 15)) * time.Minute
	retentionDays := getEnvIntOrDefault("RUN_RETENTION_DAYS", 365)

	db, err := database.NewDB(dataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	redisClient, err := ratelimit.NewRedisClient(redisConfig)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with in-memory rate limiting", "error", err)
	}
	defer redisClient.Close()

	limiterConfig := ratelimit.Config{
		IPLimitPerMin:       getEnvIntOrDefault("RATE_LIMIT_IP_PER_MIN", 60),
		ProjectLimitPerHour: getEnvIntOrDefault("RATE_LIMIT_PROJECT_PER_HOUR", 30),
		BurstMultiplier:     2,
	}
	limiter := ratelimit.NewRateLimiter(redisClient, limiterConfig, appMetrics)

	srv := &server{
		repo:    repo,
		db:      db,
		cache:   cache.New(cacheTTL),
		limiter: limiter,
		metrics: appMetrics,
		logger:  appLogger,
		clock:   time.Now,
	}

	// Prune old runs daily
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			deleted, err := repo.PruneRunsOlderThan(time.Duration(retentionDays) * 24 * time.Hour)
			if err != nil {
				slog.Error("Failed to prune old evaluation runs", "error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("Pruned old evaluation runs", "deleted", deleted, "retention_days", retentionDays)
			}
		}
	}()

	r := srv.setupRouter()

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func (s *server) setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(monitoring.MonitoringMiddleware(s.logger, s.metrics))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	if s.compression == nil {
		s.compression = middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig())
	}
	r.Use(s.compression.Handler())

	securityConfig := security.DefaultSecurityConfig()
	securityMiddleware := security.NewSecurityMiddleware(securityConfig)
	r.Use(security.SecurityHeadersMiddleware())
	r.Use(securityMiddleware.RequestTimeout)
	r.Use(securityMiddleware.ValidateContentType)
	r.Use(securityMiddleware.LimitBodySize)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		getEnvOrDefault("CORS_ORIGIN", "http://localhost:5173"),
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.Use(s.limiter.IPRateLimitMiddleware())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.metrics.GetStats())
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		api.POST("/projects/:id/evaluate", s.limiter.ProjectRateLimitMiddleware(), s.handleEvaluate)
		api.GET("/projects/:id/evaluations", s.handleListRuns)
		api.GET("/evaluations/:run_id", s.handleGetRun)
	}

	return r
}

// handleEvaluate runs the evaluation pipeline for a project's bid set,
// persists the resulting report, and returns it. Identical payloads within
// the cache TTL are served from cache without re-running the pipeline.
func (s *server) handleEvaluate(c *gin.Context) {
	projectID := c.Param("id")
	start := s.clock()

	body, err := c.GetRawData()
	if err != nil {
		appErr := errors.NewInvalidInputError("failed to read request body")
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	cacheKey := cache.Key(append([]byte(projectID+":"), body...))
	if cached, found := s.cache.Get(cacheKey); found {
		s.metrics.RecordCacheHit()
		s.logger.CacheLogger("get", cacheKey[:8], true)
		c.Data(http.StatusOK, "application/json", cached)
		return
	}
	s.metrics.RecordCacheMiss()
	s.logger.CacheLogger("get", cacheKey[:8], false)

	var req evaluateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		appErr := errors.NewInvalidInputError(fmt.Sprintf("malformed request body: %v", err))
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	cfg := evaluation.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}

	report, err := evaluation.Evaluate(evaluation.Input{
		Bids:         req.Bids,
		Estimate:     req.Estimate,
		Criteria:     req.Criteria,
		Ratings:      req.Ratings,
		Requirements: req.Requirements,
		Config:       cfg,
		AsOf:         s.clock(),
	})
	if err != nil {
		s.metrics.RecordEvaluationError()
		appErr := errors.ToAppError(err)
		s.logger.EvaluationErrorLogger(projectID, string(appErr.Category), err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	s.metrics.RecordEvaluation()

	reportJSON, err := json.Marshal(report)
	if err != nil {
		appErr := errors.NewInternalError("failed to encode evaluation report", err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	run := database.NewEvaluationRun(projectID, len(req.Bids), string(reportJSON), cacheKey, c.ClientIP())
	winner := ""
	if report.Recommendation != nil {
		winner = report.Recommendation.BidderID
		run.WinnerID = winner
		for _, e := range report.Evaluations {
			if e.BidderID == winner {
				score := e.OverallScore
				run.WinnerScore = &score
				break
			}
		}
	}

	if err := s.repo.UpsertProject(projectID, req.ProjectName, req.Estimate); err != nil {
		slog.Error("Failed to upsert project", "project_id", projectID, "error", err)
	}
	if err := s.repo.SaveRun(run); err != nil {
		// Persistence failure should not cost the caller their report
		slog.Error("Failed to persist evaluation run", "project_id", projectID, "error", err)
	}

	s.logger.EvaluationLogger(projectID, len(req.Bids), winner, s.clock().Sub(start), false)

	response := gin.H{
		"run_id":     run.ID,
		"project_id": projectID,
		"created_at": run.CreatedAt,
		"report":     json.RawMessage(reportJSON),
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		appErr := errors.NewInternalError("failed to encode response", err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	s.cache.Set(cacheKey, responseJSON)
	c.Data(http.StatusOK, "application/json", responseJSON)
}

// handleListRuns returns recent evaluation runs for a project without
// their report bodies
func (s *server) handleListRuns(c *gin.Context) {
	projectID := c.Param("id")

	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	runs, err := s.repo.ListRunsByProject(projectID, limit)
	if err != nil {
		appErr := errors.NewInternalError("failed to list evaluation runs", err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": projectID,
		"runs":       runs,
		"count":      len(runs),
	})
}

// handleGetRun returns a single evaluation run with its full report
func (s *server) handleGetRun(c *gin.Context) {
	runID := c.Param("run_id")

	run, err := s.repo.GetRun(runID)
	if err != nil {
		appErr := errors.NewInternalError("failed to fetch evaluation run", err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if run == nil {
		appErr := errors.NewNotFoundError("evaluation run", runID)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":       run.ID,
		"project_id":   run.ProjectID,
		"bid_count":    run.BidCount,
		"winner_id":    run.WinnerID,
		"winner_score": run.WinnerScore,
		"created_at":   run.CreatedAt,
		"report":       json.RawMessage(run.Report),
	})
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   time.Now().Format(time.RFC3339),
		"version":     "1.0.0",
		"metrics":     s.metrics.GetStats(),
		"cache":       s.cache.Stats(),
		"rate_limit":  s.limiter.GetStats(),
		"database":    s.db.GetPoolStats(),
		"compression": s.compression.GetStats(),
	})
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
