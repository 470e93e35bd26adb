package router

import (
	"github.com/wb-go/wbf/ginext"

	"notification-service/internal/api/handlers/notification"
	"notification-service/internal/middlewares"
)

func New(handler *notification.Handler) *ginext.Engine {
	e := ginext.New()
	e.Use(middlewares.CORSMiddleware())
	e.Use(ginext.Logger())
	e.Use(ginext.Recovery())

	api := e.Group("/api")
	{
		notifications := api.Group("/notifications")
		{
			notifications.POST("", handler.Create)
			notifications.GET("/stats", handler.Stats)
			notifications.GET("/:id", handler.GetStatus)
			notifications.POST("/:id/retry", handler.Retry)
		}

		api.GET("/users/:user_id/notifications", handler.ListByUser)
	}

	return e
}
