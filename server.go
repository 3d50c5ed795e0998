package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/middlewares"
	"github.com/mmdatafocus/asset_audit_backend/models"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"github.com/mmdatafocus/asset_audit_backend/workflow"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = "8080"

var tracer = otel.Tracer("asset-audit-backend")

type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func getRedisClient(redisAddress string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// readinessGate answers /healthz itself and returns 503 until DB and Redis are connected.
func readinessGate(ready func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if !ready() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service not ready"})
			return
		}
		c.Next()
	}
}

func dependenciesReady() bool {
	return config.GetDB() != nil && config.GetRedisDB() != nil
}

func tracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}

func corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// In production only the CORS_ALLOWED_ORIGINS allowlist is accepted; empty denies all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if config.IsProduction() {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "x-correlation-id")
	corsConfig.AllowCredentials = true
	return corsConfig
}

func rateLimitFromEnv() (int64, time.Duration) {
	limit := int64(600)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	windowSec := int64(60)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			windowSec = n
		}
	}
	return limit, time.Duration(windowSec) * time.Second
}

func registerRoutes(r *gin.Engine) {
	api := r.Group("/api")

	plans := api.Group("/audit-plans")
	plans.GET("", listAuditPlansHandler)
	plans.POST("", createAuditPlanHandler)
	plans.GET("/visibility/pending", listPendingVisibilityHandler)
	plans.POST("/visibility/save", savePendingVisibilityHandler)
	plans.DELETE("/visibility/pending", discardPendingVisibilityHandler)
	plans.GET("/:id", getAuditPlanHandler)
	plans.GET("/:id/discrepancies", listDiscrepanciesHandler)
	plans.GET("/:id/corrective-actions", listCorrectiveActionsHandler)
	plans.GET("/:id/report", auditReportHandler)
	plans.POST("/:id/report/export", exportAuditReportHandler)
	plans.POST("/:id/unlisted-assets", addUnlistedAssetHandler)
	plans.POST("/:id/visibility", stagePlanVisibilityHandler)

	records := api.Group("/audit-records")
	records.PUT("/:id", auditRecordHandler("updateAuditRecordHandler", func(c *gin.Context, id int, input *models.AuditRecordInput) (*models.AuditAssetRecord, error) {
		return models.UpdateAuditAssetRecord(c.Request.Context(), id, input)
	}))
	records.POST("/:id/finding", auditRecordHandler("submitAuditFindingHandler", func(c *gin.Context, id int, input *models.AuditRecordInput) (*models.AuditAssetRecord, error) {
		return models.SubmitAuditFinding(c.Request.Context(), id, input)
	}))
	records.POST("/:id/resolve", auditRecordHandler("resolveAuditDiscrepancyHandler", func(c *gin.Context, id int, input *models.AuditRecordInput) (*models.AuditAssetRecord, error) {
		return models.ResolveAuditDiscrepancy(c.Request.Context(), id, input)
	}))
	records.POST("/:id/photo", evidencePhotoHandler)
	records.POST("/:id/corrective-action/draft", draftCorrectiveActionHandler)

	api.POST("/corrective-actions", createCorrectiveActionHandler)
	api.PUT("/corrective-actions/:id/status", updateCorrectiveActionStatusHandler)

	api.GET("/employees", listEmployeesHandler)
	api.POST("/employees", createResourceHandler("createEmployeeHandler", models.CreateEmployee))
	api.GET("/employees/:id", getResourceHandler("getEmployeeHandler", models.GetEmployee))
	api.GET("/locations", listLocationsHandler)
	api.POST("/locations", createResourceHandler("createLocationHandler", models.CreateLocation))
	api.GET("/locations/:id", getResourceHandler("getLocationHandler", models.GetLocation))
	api.GET("/assets", listAssetsHandler)
	api.POST("/assets", createResourceHandler("createAssetHandler", models.CreateAsset))
	api.GET("/assets/:id", getResourceHandler("getAssetHandler", models.GetAsset))

	api.POST("/employees/batch", batchHandler("saveEmployeesBatchHandler", func(c *gin.Context, inputs []*models.NewEmployee) (utils.BatchResult, error) {
		return models.SaveEmployeesBatch(c.Request.Context(), inputs)
	}))
	api.POST("/locations/batch", batchHandler("saveLocationsBatchHandler", func(c *gin.Context, inputs []*models.NewLocation) (utils.BatchResult, error) {
		return models.SaveLocationsBatch(c.Request.Context(), inputs)
	}))
	api.POST("/assets/batch", batchHandler("saveAssetsBatchHandler", func(c *gin.Context, inputs []*models.NewAsset) (utils.BatchResult, error) {
		return models.SaveAssetsBatch(c.Request.Context(), inputs)
	}))

	api.POST("/import/employees", importHandler("importEmployeesHandler", models.ImportEmployeesFromXlsx))
	api.POST("/import/locations", importHandler("importLocationsHandler", models.ImportLocationsFromXlsx))
	api.POST("/import/assets", importHandler("importAssetsHandler", models.ImportAssetsFromXlsx))

	r.POST("/pubsub", auditPubSubHandler())
}

func newRouter(logger *logrus.Logger, ready func() bool) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(readinessGate(ready))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(cors.New(corsConfig()))

	// RATE_LIMIT_ENABLED=true turns on the per-IP redis limiter.
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		limit, window := rateLimitFromEnv()
		rateLimiter := NewRateLimiter(getRedisClient(os.Getenv("REDIS_ADDRESS")), limit, window)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(tracingMiddleware())
	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.LoaderMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// The port opens before DB and Redis are up; app routes answer 503 until then.
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: newRouter(logger, dependenciesReady),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate DDL can block tables; SKIP_MIGRATIONS=true leaves it to a separate job.
	if !config.SkipMigrations() {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	defer cancelDispatcher()
	if config.OutboxEnabled() {
		go workflow.NewOutboxDispatcher(db, logger).Run(dispatcherCtx)
	} else {
		logger.WithFields(logrus.Fields{"field": "outbox"}).Warn("AUDIT_OUTBOX_ENABLED=false; dispatcher not started")
	}

	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("asset audit api listening on :", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop the dispatcher before draining requests.
	cancelDispatcher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger logs only requests that recorded gin errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// RateLimitMiddleware counts requests per client IP in fixed windows.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := "RateLimit:" + c.ClientIP()

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if count == 1 {
		if err := rl.client.Expire(c.Request.Context(), key, rl.window).Err(); err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
