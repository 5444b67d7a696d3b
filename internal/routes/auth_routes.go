package routes

import (
	"github.com/gin-gonic/gin"

	"locamark/internal/controllers"
	"locamark/internal/middleware"
)

func AuthRoutes(r *gin.Engine, auth *middleware.Auth) {
	r.GET("/healthz", controllers.Health)

	ac := controllers.NewAuthController(auth)
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/token", ac.Token)
	}
}
