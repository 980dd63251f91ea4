package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/dresscode/internal/container"
	handlers "github.com/oksasatya/dresscode/internal/interface/http"
	"github.com/oksasatya/dresscode/internal/interface/middleware"
)

type AddressModule struct {
	Handler *handlers.AddressHandler
}

func NewAddressModule(h *handlers.AddressHandler) *AddressModule {
	return &AddressModule{Handler: h}
}

func (m *AddressModule) Register(rg *gin.RouterGroup) {
	// remote lookups hit ViaCEP, keep them modest per IP
	lookupLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())

	g := rg.Group("/address")
	{
		g.GET("/states", m.Handler.States)
		g.GET("/status", m.Handler.Status)
		g.GET("/cache", m.Handler.CacheStats)
		g.DELETE("/cache", m.Handler.ClearCache)
		g.POST("/batch", lookupLimiter, m.Handler.Batch)
		g.GET("/:code", lookupLimiter, m.Handler.Lookup)
	}
}
