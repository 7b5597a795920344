package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/janhq/cms-media/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches the broker endpoint and all v1 routes.
func (r *Routes) Register(router gin.IRouter) {
	router.GET("/api/s3-sts-token", r.handlers.Token.Issue)

	group := router.Group("/v1")
	group.GET("/media", r.handlers.Media.List)
	group.POST("/media", r.handlers.Media.Upload)
	group.GET("/media/preview", r.handlers.Media.Preview)
	group.DELETE("/media/*id", r.handlers.Media.Delete)
	group.GET("/credentials/issuances", r.handlers.Issuances.List)
}
