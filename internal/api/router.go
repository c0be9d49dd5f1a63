// Package api exposes matching, explanations and admin retraining over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"scholarship-engine/internal/common/config"
	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/engine/trainer"
	"scholarship-engine/internal/models"
	"scholarship-engine/internal/training"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Matcher interface {
	Match(ctx context.Context, studentID, scholarshipID string) (*models.MatchResult, error)
	Explain(ctx context.Context, studentID, scholarshipID string) (*models.Explanation, error)
	EvaluateEligibility(student models.StudentProfile, scholarship models.Scholarship) models.MatchResult
}

type Trainer interface {
	Run(ctx context.Context, req training.Request) (*training.Result, error)
	Start(req training.Request) (string, error)
	Get(runID string) (*models.TrainingRun, error)
	Defaults() trainer.Options
}

type ModelSource interface {
	Current() (*models.Model, bool)
}

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type RouterConfig struct {
	Server  config.ServerConfig
	Matcher Matcher
	Trainer Trainer
	Models  ModelSource
	Checks  map[string]ReadinessCheck
	Logger  logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Logger))

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := &Handler{
		matcher: cfg.Matcher,
		trainer: cfg.Trainer,
		models:  cfg.Models,
		checks:  cfg.Checks,
		logger:  cfg.Logger,
	}

	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/students/:studentId/scholarships/:scholarshipId/match", h.Match)
		v1.GET("/students/:studentId/scholarships/:scholarshipId/explanation", h.Explain)
		v1.POST("/eligibility/evaluate", h.EvaluateEligibility)
	}

	admin := v1.Group("/admin")
	admin.Use(NewIPRateLimiter(cfg.Server.AdminRateLimit, cfg.Server.AdminRateBurst).Middleware())
	{
		admin.GET("/model", h.ActiveModel)
		admin.POST("/model/retrain", h.Retrain)
		admin.GET("/model/retrain/:runId", h.RetrainStatus)
	}

	return router
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
			"clientIp":   c.ClientIP(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request failed", fields)
			return
		}
		log.Debug("request served", fields)
	}
}
