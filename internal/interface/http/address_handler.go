package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/dresscode/internal/application"
	"github.com/oksasatya/dresscode/pkg/helpers"
	"github.com/oksasatya/dresscode/pkg/response"
	"github.com/oksasatya/dresscode/pkg/validation"
)

type AddressHandler struct {
	Svc    *application.AddressService
	Logger *logrus.Logger
}

func NewAddressHandler(svc *application.AddressService, logger *logrus.Logger) *AddressHandler {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	return &AddressHandler{Svc: svc, Logger: logger}
}

type batchLookupRequest struct {
	Codes []string `json:"codes" binding:"required,min=1,max=20"`
}

func lookupStatus(s application.LookupStatus) int {
	switch s {
	case application.LookupOK:
		return http.StatusOK
	case application.LookupInvalid:
		return http.StatusBadRequest
	case application.LookupNotFound:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

func (h *AddressHandler) Lookup(c *gin.Context) {
	res := h.Svc.Lookup(c.Request.Context(), c.Param("code"))
	if !res.OK() {
		response.Error[any](c, lookupStatus(res.Status), res.Message, res)
		return
	}
	response.Success(c, http.StatusOK, res, res.Message, nil)
}

func (h *AddressHandler) Batch(c *gin.Context) {
	var req batchLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	out := h.Svc.LookupMany(c.Request.Context(), req.Codes)
	found := 0
	for _, r := range out {
		if r.Result.OK() {
			found++
		}
	}
	response.Success(c, http.StatusOK, out, "batch lookup finished", map[string]any{"total": len(out), "found": found})
}

func (h *AddressHandler) States(c *gin.Context) {
	response.Success(c, http.StatusOK, h.Svc.States(), "states", nil)
}

func (h *AddressHandler) CacheStats(c *gin.Context) {
	response.Success(c, http.StatusOK, h.Svc.CacheStats(), "address cache", nil)
}

// ClearCache drops ?code=, or the whole cache without it.
func (h *AddressHandler) ClearCache(c *gin.Context) {
	code := c.Query("code")
	h.Svc.ClearCache(code)
	h.Logger.WithField("postal_code", code).Info("address cache cleared")
	response.Success[any](c, http.StatusOK, map[string]any{"cleared": true}, "address cache cleared", nil)
}

func (h *AddressHandler) Status(c *gin.Context) {
	if !h.Svc.Available(c.Request.Context()) {
		response.Error[any](c, http.StatusServiceUnavailable, application.MsgPostalUnavailable, map[string]bool{"available": false})
		return
	}
	response.Success(c, http.StatusOK, map[string]bool{"available": true}, "postal code service available", nil)
}
