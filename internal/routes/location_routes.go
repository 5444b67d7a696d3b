package routes

import (
	"github.com/gin-gonic/gin"

	"locamark/internal/controllers"
	"locamark/internal/service"
)

func LocationRoutes(r *gin.RouterGroup, svc *service.LocationService) {
	lc := controllers.NewLocationController(svc)

	r.GET("/categories", lc.Categories)

	locations := r.Group("/locations")
	{
		locations.GET("", lc.List)
		locations.POST("/mark", lc.Mark)
		locations.POST("/import/qr", lc.ImportQR)
		locations.PATCH("/:id", lc.Update)
		locations.DELETE("/:id", lc.Delete)
		locations.GET("/:id/share", lc.Share)
		locations.GET("/:id/qr.png", lc.QRCode)
	}

	r.GET("/export/csv", lc.ExportCSV)
	r.GET("/export/geojson", lc.ExportGeoJSON)
	r.POST("/import/csv", lc.ImportCSV)
}
