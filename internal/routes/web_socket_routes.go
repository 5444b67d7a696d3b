package routes

import (
	"github.com/gin-gonic/gin"

	"locamark/internal/controllers"
	"locamark/internal/geo"
)

func PositionRoutes(r *gin.RouterGroup, tracker *geo.Tracker) {
	pc := controllers.NewPositionController(tracker)
	position := r.Group("/position")
	{
		position.GET("", pc.Current)
		position.POST("", pc.Push)
		position.PUT("/authorization", pc.SetAuthorization)
	}
}

func WebSocketRoutes(r *gin.RouterGroup, tracker *geo.Tracker) {
	pc := controllers.NewPositionController(tracker)
	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/position", pc.DeviceSocket)
		wsRoutes.GET("/position/watch", pc.WatchSocket)
	}
}
