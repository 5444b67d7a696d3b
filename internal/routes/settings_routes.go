package routes

import (
	"github.com/gin-gonic/gin"

	"locamark/internal/controllers"
	"locamark/internal/service"
)

func SettingsRoutes(r *gin.RouterGroup, svc *service.LocationService) {
	sc := controllers.NewSettingsController(svc)
	r.GET("/settings", sc.Get)
	r.PUT("/settings", sc.Update)
}
