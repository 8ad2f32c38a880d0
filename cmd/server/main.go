package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/EmpowerMS/empower-ms/internal/cache"
	"github.com/EmpowerMS/empower-ms/internal/errors"
	"github.com/EmpowerMS/empower-ms/internal/frontend"
	"github.com/EmpowerMS/empower-ms/internal/monitoring"
	"github.com/EmpowerMS/empower-ms/internal/ratelimit"
	"github.com/EmpowerMS/empower-ms/internal/risk"
	"github.com/EmpowerMS/empower-ms/internal/security"
	"github.com/EmpowerMS/empower-ms/internal/types"
)

// @title EmpowerMS API
// @version 1.0
// @description Smoking-cessation benefit calculator for Black persons with multiple sclerosis.
// @BasePath /

func main() {
	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	port := getEnvOrDefault("PORT", "8080")
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getEnvIntOrDefault("REDIS_DB", 0)
	cacheTTL := getEnvDurationOrDefault("CACHE_TTL", 15*time.Minute)
	ipLimitPerMin := getEnvIntOrDefault("RATE_LIMIT_PER_MIN", 60)

	// Redis is optional; the limiter degrades to in-memory buckets without it.
	redisClient, err := ratelimit.NewRedisClient(redisAddr, redisPassword, redisDB)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with in-memory rate limiting", "error", err)
	}
	defer errors.SafeClose(redisClient, "redis")

	limiterConfig := ratelimit.DefaultConfig()
	limiterConfig.IPLimitPerMin = ipLimitPerMin

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()
	limiter := ratelimit.NewRateLimiter(redisClient, limiterConfig, appMetrics)
	appCache := cache.NewCache(cacheTTL)

	securityConfig := security.DefaultSecurityConfig()
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		securityConfig.AllowedOrigins = strings.Split(origins, ",")
	}

	model := risk.Default()

	r, err := setupRouter(model, appCache, limiter, appMetrics, appLogger, securityConfig)
	if err != nil {
		slog.Error("Failed to set up router", "error", err)
		os.Exit(1)
	}

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// setupRouter wires middleware and routes onto a fresh engine.
func setupRouter(
	model *risk.Model,
	appCache *cache.Cache,
	limiter *ratelimit.RateLimiter,
	appMetrics *monitoring.Metrics,
	appLogger *monitoring.Logger,
	securityConfig security.SecurityConfig,
) (*gin.Engine, error) {
	r := gin.New()

	if err := r.SetTrustedProxies(securityConfig.TrustedProxies); err != nil {
		return nil, err
	}

	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	if securityConfig.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = securityConfig.AllowedOrigins
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		r.Use(cors.New(corsConfig))
	}

	securityMiddleware := security.NewSecurityMiddleware(securityConfig)
	r.Use(securityMiddleware.SecurityHeaders)
	r.Use(security.CSPMiddleware())
	r.Use(securityMiddleware.RequestTimeout)
	r.Use(securityMiddleware.ValidateContentType)
	r.Use(securityMiddleware.LimitBodySize)
	r.Use(limiter.IPRateLimitMiddleware())
	r.Use(appCache.Middleware(appMetrics))

	// Embedded calculator page
	staticFS, err := frontend.GetStaticFS()
	if err != nil {
		return nil, err
	}
	indexTemplate, err := frontend.LoadIndexTemplate(staticFS)
	if err != nil {
		return nil, err
	}
	r.GET("/", frontend.NewPageHandler(indexTemplate))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
		})
	})

	r.POST("/api/risk", handleRisk(model, appMetrics, appLogger))
	r.POST("/api/benefit", handleBenefit(model, appMetrics, appLogger))
	r.GET("/api/model", handleModel(model))

	// Swagger documentation routes
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Operational endpoints
	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, appMetrics.GetStats())
	})

	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, appCache.Stats())
	})

	r.GET("/ratelimit/status", limiter.HandleRateLimitStatus())

	r.GET("/ratelimit/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, limiter.GetStats())
	})

	return r, nil
}

// handleRisk estimates the probability of disease worsening.
//
// @Summary Worsening-risk estimate
// @Accept json
// @Produce json
// @Param request body types.EstimateRequest true "covariates"
// @Success 200 {object} types.RiskResponse
// @Router /api/risk [post]
func handleRisk(model *risk.Model, appMetrics *monitoring.Metrics, appLogger *monitoring.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req types.EstimateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := errors.NewValidationError("invalid request body", err.Error())
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		covariates := req.Covariates()

		riskProbability, err := model.ComputeRisk(covariates)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		contributions, err := model.Contributions(covariates)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		response := types.RiskResponse{
			RiskPercent:   riskProbability * 100,
			Contributions: contributions,
		}

		outOfPopulation := req.OutOfPopulation()
		if outOfPopulation {
			response.Advisory = types.OutOfPopulationAdvisory
			appMetrics.IncrementAdvisory()
		}

		appMetrics.IncrementRiskEstimate()
		appLogger.EstimateLogger("risk", response.RiskPercent, outOfPopulation, time.Since(start))

		c.JSON(http.StatusOK, response)
	}
}

// handleBenefit estimates the benefit of smoking cessation.
//
// @Summary Smoking-cessation benefit estimate
// @Accept json
// @Produce json
// @Param request body types.EstimateRequest true "covariates"
// @Success 200 {object} types.BenefitResponse
// @Failure 422 {object} errors.AppError "reduction undefined at zero current risk"
// @Router /api/benefit [post]
func handleBenefit(model *risk.Model, appMetrics *monitoring.Metrics, appLogger *monitoring.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req types.EstimateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := errors.NewValidationError("invalid request body", err.Error())
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		benefit, err := model.ComputeBenefit(req.Covariates())
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		response := types.BenefitResponse{
			RelativeReductionPercent:  benefit.RelativeReductionPercent,
			CurrentRiskPercent:        benefit.CurrentRiskPercent,
			RiskWithoutSmokingPercent: benefit.RiskWithoutSmokingPercent,
			Chart:                     types.BenefitChart(benefit),
		}

		outOfPopulation := req.OutOfPopulation()
		if outOfPopulation {
			response.Advisory = types.OutOfPopulationAdvisory
			appMetrics.IncrementAdvisory()
		}

		appMetrics.IncrementBenefitEstimate()
		appLogger.EstimateLogger("benefit", response.CurrentRiskPercent, outOfPopulation, time.Since(start))

		c.JSON(http.StatusOK, response)
	}
}

// handleModel exposes the fixed coefficient table.
//
// @Summary Model coefficients
// @Produce json
// @Success 200 {object} types.ModelResponse
// @Router /api/model [get]
func handleModel(model *risk.Model) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, types.ModelResponse{
			Coefficients: model.Coefficients(),
			Covariates:   risk.RequiredCovariates(),
		})
	}
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
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", value)
	}
	return defaultValue
}
