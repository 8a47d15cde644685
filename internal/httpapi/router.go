// Package httpapi exposes the case engine as a JSON API over gin.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/service"
)

// Services are the use cases the API serves.
type Services struct {
	Cases           service.CaseService
	Progress        service.ProgressionService
	Lifecycle       service.LifecycleService
	Archive         service.ArchiveService
	Recommendations service.RecommendationService
	// Handwriting is optional; without it the analyze route is not mounted.
	Handwriting service.HandwritingService
}

type RouterConfig struct {
	Services Services
	Resolver app.IdentityResolver
	Logger   *slog.Logger
	// Gatherer backs /metrics when set.
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Logger))

	r.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	h := &handler{svc: cfg.Services, log: cfg.Logger}
	api := r.Group("/api")
	api.Use(RequireAuth(cfg.Resolver))
	{
		api.GET("/cases", h.listCases)
		api.POST("/cases", h.createCase)

		cases := api.Group("/cases/:id")
		cases.GET("", h.viewCase)
		cases.GET("/state", h.caseState)
		cases.POST("/members", h.addMember)
		cases.DELETE("/members/:user", h.removeMember)

		cases.GET("/stages/:stage", h.getStage)
		cases.PUT("/stages/:stage", h.submitStage)
		cases.POST("/stages/:stage/complete", h.completeStage)
		if cfg.Services.Handwriting != nil {
			cases.POST("/handwriting", h.analyzeHandwriting)
		}
		cases.POST("/progress", h.recordProgress)
		cases.PUT("/progress/:entry", h.updateProgress)
		cases.GET("/activities/:activity/progress", h.progressHistory)

		cases.GET("/recommendations", h.listRecommendations)
		cases.POST("/recommendations", h.submitRecommendation)

		cases.POST("/decision", h.decide)
		cases.POST("/terminate-progress", h.terminateProgress)

		cases.GET("/reports", h.listReports)
		cases.GET("/reports/:session", h.getReport)
	}
	return r
}
