package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/dresscode/internal/application"
	"github.com/oksasatya/dresscode/pkg/helpers"
	"github.com/oksasatya/dresscode/pkg/response"
	"github.com/oksasatya/dresscode/pkg/validation"
)

type WizardHandler struct {
	Sessions *application.WizardSessions
	Logger   *logrus.Logger
}

func NewWizardHandler(sessions *application.WizardSessions, logger *logrus.Logger) *WizardHandler {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	return &WizardHandler{Sessions: sessions, Logger: logger}
}

type valuesRequest struct {
	Values application.Values `json:"values"`
}

type addressRequest struct {
	PostalCode string `json:"postalCode" binding:"required,postalcode"`
}

type sessionView struct {
	ID string `json:"id"`
	application.WizardSnapshot
}

func (h *WizardHandler) session(c *gin.Context) (*application.Wizard, bool) {
	w, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "wizard session not found", nil)
		return nil, false
	}
	return w, true
}

// bindValues accepts an empty body as no values.
func bindValues(c *gin.Context) (application.Values, bool) {
	if c.Request.ContentLength == 0 {
		return application.Values{}, true
	}
	var req valuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return nil, false
	}
	if req.Values == nil {
		req.Values = application.Values{}
	}
	return req.Values, true
}

func (h *WizardHandler) Create(c *gin.Context) {
	id, w, err := h.Sessions.Create()
	if errors.Is(err, application.ErrTooManySessions) {
		response.Error[any](c, http.StatusTooManyRequests, "too many registrations in progress, try again later", nil)
		return
	}
	if err != nil {
		h.Logger.WithError(err).Error("create wizard session failed")
		response.Error[any](c, http.StatusInternalServerError, "could not start registration", nil)
		return
	}
	h.Logger.WithField("session_id", id).Debug("wizard session created")
	response.Success(c, http.StatusCreated, sessionView{ID: id, WizardSnapshot: w.Snapshot()}, "wizard session created", nil)
}

func (h *WizardHandler) Steps(c *gin.Context) {
	response.Success(c, http.StatusOK, application.Steps(), "wizard steps", map[string]any{"total": application.TotalSteps})
}

func (h *WizardHandler) Get(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, sessionView{ID: c.Param("id"), WizardSnapshot: w.Snapshot()}, "wizard session", nil)
}

func (h *WizardHandler) Delete(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}
	h.Sessions.Delete(c.Param("id"))
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": true}, "wizard session deleted", nil)
}

// reply maps a wizard action result onto the envelope.
func (h *WizardHandler) reply(c *gin.Context, out application.StepOutcome, err error, okMsg string) {
	switch {
	case errors.Is(err, application.ErrInvalidTransition):
		response.Error[any](c, http.StatusConflict, "action not allowed in the current wizard state", out)
	case err != nil:
		h.Logger.WithError(err).WithField("session_id", c.Param("id")).Error("wizard action failed")
		response.Error[any](c, http.StatusInternalServerError, "wizard action failed", out)
	case len(out.Errors) > 0 || len(out.Messages) > 0:
		response.Error[any](c, http.StatusUnprocessableEntity, "please fix the highlighted fields", out)
	default:
		response.Success(c, http.StatusOK, out, okMsg, nil)
	}
}

func (h *WizardHandler) Start(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	out, err := w.Start()
	h.reply(c, out, err, "wizard started")
}

func (h *WizardHandler) Next(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	values, ok := bindValues(c)
	if !ok {
		return
	}
	out, err := w.Next(c.Request.Context(), values)
	h.reply(c, out, err, "step completed")
}

func (h *WizardHandler) Back(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	values, ok := bindValues(c)
	if !ok {
		return
	}
	out, err := w.Back(values)
	h.reply(c, out, err, "moved back")
}

func (h *WizardHandler) Submit(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	values, ok := bindValues(c)
	if !ok {
		return
	}
	out, err := w.Submit(c.Request.Context(), values)
	if err == nil && out.State == application.StateSubmitted {
		response.Success(c, http.StatusCreated, out, "registration completed", nil)
		return
	}
	h.reply(c, out, err, "registration completed")
}

func (h *WizardHandler) Dismiss(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	out, err := w.Dismiss()
	h.reply(c, out, err, "confirmation dismissed")
}

func (h *WizardHandler) Reset(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	h.reply(c, w.Reset(), nil, "wizard reset")
}

func (h *WizardHandler) LookupAddress(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	out, err := w.LookupAddress(c.Request.Context(), req.PostalCode)
	switch {
	case errors.Is(err, application.ErrInvalidTransition):
		response.Error[any](c, http.StatusConflict, "action not allowed in the current wizard state", nil)
	case err != nil:
		h.Logger.WithError(err).Error("address lookup failed")
		response.Error[any](c, http.StatusInternalServerError, "address lookup failed", nil)
	case out.Stale:
		response.Error[any](c, http.StatusConflict, "lookup superseded by a newer request", out)
	case !out.Applied:
		response.Error[any](c, lookupStatus(out.Result.Status), out.Result.Message, out)
	default:
		response.Success(c, http.StatusOK, out, out.Result.Message, nil)
	}
}

func (h *WizardHandler) CheckUsername(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	res, err := w.CheckUsername(c.Request.Context(), c.Query("value"))
	if err != nil {
		h.Logger.WithError(err).Error("username check failed")
		response.Error[any](c, http.StatusInternalServerError, "username check failed", nil)
		return
	}
	response.Success(c, http.StatusOK, res, res.Message, nil)
}

func (h *WizardHandler) CheckEmail(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	res, err := w.CheckEmail(c.Request.Context(), c.Query("value"))
	if err != nil {
		h.Logger.WithError(err).Error("email check failed")
		response.Error[any](c, http.StatusInternalServerError, "email check failed", nil)
		return
	}
	response.Success(c, http.StatusOK, res, res.Message, nil)
}
