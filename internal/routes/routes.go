package routes

import (
	"context"
	"io"

	ginlogger "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"locamark/internal/geo"
	"locamark/internal/middleware"
	"locamark/internal/service"
)

// Dependencies are the long-lived objects the handlers share.
type Dependencies struct {
	Service *service.LocationService
	Tracker *geo.Tracker
	Auth    *middleware.Auth
	// RequestLog receives one line per request. Nil disables request logging.
	RequestLog io.Writer
}

func SetupRouter(d Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if d.RequestLog != nil {
		r.Use(ginlogger.SetLogger(
			ginlogger.WithWriter(d.RequestLog),
			ginlogger.WithUTC(true),
			ginlogger.WithSkipPath([]string{"/healthz"}),
		))
	}

	r.Use(middleware.Language(func(ctx context.Context) (string, error) {
		s, err := d.Service.Settings(ctx)
		return s.Language, err
	}))

	AuthRoutes(r, d.Auth)

	protected := r.Group("/")
	protected.Use(d.Auth.RequireAuth())
	{
		LocationRoutes(protected, d.Service)
		SettingsRoutes(protected, d.Service)
		PositionRoutes(protected, d.Tracker)
		WebSocketRoutes(protected, d.Tracker)
	}

	return r
}
