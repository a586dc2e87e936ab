package router

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/devpokerapp/devpoker-services/internal/config"
	"github.com/devpokerapp/devpoker-services/internal/gateway"
	"github.com/devpokerapp/devpoker-services/internal/handler"
	"github.com/devpokerapp/devpoker-services/internal/metrics"
	"github.com/devpokerapp/devpoker-services/internal/middleware"
)

// Setup assembles the gin engine: middleware chain, health and metrics
// endpoints, the websocket gateway and the REST CRUD surface.
func Setup(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	m *metrics.Metrics,
	wsHandler *gateway.WSHandler,
	sessionHandler *handler.SessionHandler,
	itemHandler *handler.ItemHandler,
	logger *zap.Logger,
) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.Metrics(m))

	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Health endpoints stay outside the base path for probes.
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group(cfg.Server.BasePath)
	{
		api.GET("/health", healthHandler.Health)
		api.GET("/ready", healthHandler.Ready)

		// Realtime gateway; all voting-round and participant operations
		// ride this socket.
		api.GET("/ws", wsHandler.HandleWebSocket)

		sessions := api.Group("/sessions")
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.PUT("/:id", sessionHandler.UpdateSession)
			sessions.POST("/:id/start", sessionHandler.StartSession)
			sessions.PUT("/:id/current-item", sessionHandler.SelectItem)
			sessions.GET("/:id/participants", sessionHandler.GetParticipants)
			sessions.GET("/:id/invites", sessionHandler.GetInvites)
			sessions.POST("/:id/items", itemHandler.CreateItem)
			sessions.GET("/:id/items", itemHandler.ListItems)
		}

		items := api.Group("/items")
		{
			items.GET("/:id", itemHandler.GetItem)
			items.PUT("/:id", itemHandler.UpdateItem)
			items.DELETE("/:id", itemHandler.DeleteItem)
			items.GET("/:id/events", itemHandler.GetTimeline)
		}
	}

	return r
}
