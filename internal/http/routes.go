package http

import (
	"time"

	"taskboard/internal/config"
	"taskboard/internal/http/handlers"
	"taskboard/internal/http/middleware"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps - всё, что нужно роутеру
type Deps struct {
	Store   *service.TaskStore
	Hub     *ws.Hub
	Slot    repository.Slot
	Config  *config.Config
	Version string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	h := handlers.NewHandler(d.Store, cfg.AuthPassword)
	healthHandler := handlers.NewHealthHandler(d.Slot, cfg.StorageKey, d.Version)

	r.Use(middleware.CORS(cfg.AllowedOrigin))
	r.Use(middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	window := time.Duration(cfg.APIRateWindowSeconds) * time.Second

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(cfg.APIRateLimit, window))

	v1.POST("/auth", h.Auth)

	api := v1.Group("")
	api.Use(middleware.JWT(cfg.AuthEnabled()))
	{
		api.GET("/tasks", h.ListTasks)
		api.POST("/tasks", h.CreateTask)
		api.POST("/tasks/clear-completed", h.ClearCompleted)
		api.GET("/tasks/:id", h.GetTask)
		api.PATCH("/tasks/:id", h.UpdateTask)
		api.DELETE("/tasks/:id", h.DeleteTask)
		api.POST("/tasks/:id/toggle", h.ToggleTask)

		api.GET("/filter", h.GetFilter)
		api.PUT("/filter", h.SetFilter)
		api.GET("/stats", h.Stats)
		api.GET("/export", h.Export)
	}

	// WebSocket: store events
	r.GET("/ws", ws.HandleWS(d.Hub, d.Store, cfg.AuthEnabled(), cfg.AllowedOrigin))
}
