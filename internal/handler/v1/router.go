package v1

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medibook/medibook/internal/config"
	"github.com/medibook/medibook/internal/service"
	"github.com/medibook/medibook/pkg/auth"
	"github.com/medibook/medibook/pkg/metrics"
)

func NewRouter(
	cfg *config.Config,
	scheduler *service.SchedulingService,
	jwtManager *auth.JWTManager,
	collector *metrics.Collector,
	log *zap.Logger,
) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	if collector != nil {
		router.Use(Metrics(collector))
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: cfg.CORS.AllowedMethods,
		AllowHeaders: cfg.CORS.AllowedHeaders,
		MaxAge:       cfg.CORS.MaxAge,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	appointments := NewAppointmentHandler(scheduler, collector)

	api := router.Group("/api/v1")
	api.Use(RequireAuth(jwtManager))
	{
		api.POST("/appointments", appointments.Book)
		api.PATCH("/appointments/:id/status", appointments.UpdateStatus)
		api.GET("/appointments", appointments.List)
	}

	return router
}
