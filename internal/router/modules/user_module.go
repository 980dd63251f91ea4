package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/dresscode/internal/container"
	handlers "github.com/oksasatya/dresscode/internal/interface/http"
	"github.com/oksasatya/dresscode/internal/interface/middleware"
)

// UserModule is the admin surface over stored registrations:
// GET /api/users, /users/search, /users/stats, /users/export, /users/storage,
// POST /users/import, GET|PATCH|DELETE /users/:id
// Every route requires an admin bearer token.
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	writeLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIP(),
		middleware.AnyOf(middleware.AllowReadOnly(), middleware.AllowPrivateIP()))

	g := rg.Group("/users", middleware.AdminAuth(container.GetJWT()), writeLimiter)
	{
		g.GET("", m.Handler.List)
		g.GET("/search", m.Handler.Search)
		g.GET("/stats", m.Handler.Statistics)
		g.GET("/export", m.Handler.Export)
		g.POST("/import", m.Handler.Import)
		g.GET("/storage", m.Handler.Storage)
		g.GET("/:id", m.Handler.Get)
		g.PATCH("/:id", m.Handler.Update)
		g.DELETE("/:id", m.Handler.Remove)
	}
}
