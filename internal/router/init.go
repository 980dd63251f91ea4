package router

import (
	"github.com/oksasatya/dresscode/internal/container"
	handlers "github.com/oksasatya/dresscode/internal/interface/http"
	"github.com/oksasatya/dresscode/internal/router/modules"
)

// InitModules builds handlers from the container and registers every module.
// Call once during startup, after the container has been populated.
func InitModules(r *Registry) {
	logger := container.GetLogger()

	r.Add(modules.NewWizardModule(handlers.NewWizardHandler(container.GetWizardSessions(), logger)))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(container.GetUserService(), logger)))
	r.Add(modules.NewAddressModule(handlers.NewAddressHandler(container.GetAddressService(), logger)))

	if cfg := container.GetConfig(); cfg != nil && cfg.MetricsEnabled {
		if reg := container.GetRegistry(); reg != nil {
			r.Add(modules.NewDebugModule(reg))
		}
	}
}
