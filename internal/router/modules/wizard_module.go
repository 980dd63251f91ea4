package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/dresscode/internal/container"
	handlers "github.com/oksasatya/dresscode/internal/interface/http"
	"github.com/oksasatya/dresscode/internal/interface/middleware"
)

// WizardModule exposes registration sessions under /api/wizard.
// Session creation is limited per IP, session actions per session id.
type WizardModule struct {
	Handler *handlers.WizardHandler
}

func NewWizardModule(h *handlers.WizardHandler) *WizardModule {
	return &WizardModule{Handler: h}
}

func (m *WizardModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	createLimiter := middleware.RateLimit(rdb, 20, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	sessionLimiter := middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyBySession(), nil)
	lookupLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	g := rg.Group("/wizard")
	g.POST("", createLimiter, m.Handler.Create)
	g.GET("/steps", m.Handler.Steps)

	s := g.Group("/:id", sessionLimiter)
	{
		s.GET("", m.Handler.Get)
		s.DELETE("", m.Handler.Delete)
		s.POST("/start", m.Handler.Start)
		s.POST("/next", m.Handler.Next)
		s.POST("/back", m.Handler.Back)
		s.POST("/submit", m.Handler.Submit)
		s.POST("/dismiss", m.Handler.Dismiss)
		s.POST("/reset", m.Handler.Reset)
		s.POST("/address", lookupLimiter, m.Handler.LookupAddress)
		s.GET("/username", m.Handler.CheckUsername)
		s.GET("/email", m.Handler.CheckEmail)
	}
}
