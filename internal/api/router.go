package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/timmy/ordermonitor/internal/api/handler"
	"github.com/timmy/ordermonitor/internal/api/middleware"
)

// RouterDeps are the read-only views the status server exposes.
type RouterDeps struct {
	Health         handler.HealthCheck // optional
	Stats          handler.StatsProvider
	Exceptions     handler.ExceptionLister // optional
	Orders         handler.OrderReader     // optional
	ExceptionCount handler.RecordCounter   // optional
	ProcessedCount handler.RecordCounter   // optional
	Gatherer       prometheus.Gatherer     // nil uses the default registry
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps RouterDeps, mode string) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	healthHandler := handler.NewHealthHandler(deps.Health)
	ingestionHandler := handler.NewIngestionHandler(deps.Stats, deps.Exceptions, deps.Orders).
		WithRecordCount("exceptions", deps.ExceptionCount).
		WithRecordCount("processed", deps.ProcessedCount)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/ingestion/stats", ingestionHandler.Stats)
		v1.GET("/ingestion/exceptions", ingestionHandler.Exceptions)
		v1.GET("/orders/stats", ingestionHandler.OrderStats)
		v1.GET("/orders/:id", ingestionHandler.GetOrder)
	}

	return r
}
