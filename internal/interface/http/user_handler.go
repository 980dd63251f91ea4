package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/dresscode/internal/application"
	"github.com/oksasatya/dresscode/internal/domain/entity"
	repo "github.com/oksasatya/dresscode/internal/domain/repository"
	"github.com/oksasatya/dresscode/pkg/helpers"
	"github.com/oksasatya/dresscode/pkg/response"
	"github.com/oksasatya/dresscode/pkg/validation"
)

const maxImportBytes = 10 << 20

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	return &UserHandler{Svc: svc, Logger: logger}
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

// fail maps service errors onto status codes.
func (h *UserHandler) fail(c *gin.Context, err error, what string) {
	var verr *entity.ValidationError
	switch {
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	case errors.As(err, &verr):
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid user data", verr.Messages)
	case errors.Is(err, repo.ErrUsernameTaken):
		response.Error[any](c, http.StatusConflict, "this username is already taken", nil)
	case errors.Is(err, repo.ErrEmailTaken):
		response.Error[any](c, http.StatusConflict, "this email is already registered", nil)
	case errors.Is(err, repo.ErrMalformedImport):
		response.Error[any](c, http.StatusBadRequest, "malformed import document", err.Error())
	default:
		h.Logger.WithError(err).Error(what + " failed")
		response.Error[any](c, http.StatusInternalServerError, what+" failed", nil)
	}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list users")
		return
	}
	response.Success(c, http.StatusOK, users, "users", map[string]any{"total": len(users)})
}

func (h *UserHandler) Search(c *gin.Context) {
	var crit repo.Criteria
	if err := c.ShouldBindQuery(&crit); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	users, err := h.Svc.Search(c.Request.Context(), crit)
	if err != nil {
		h.fail(c, err, "search users")
		return
	}
	response.Success(c, http.StatusOK, users, "users", map[string]any{"total": len(users), "criteria": crit})
}

func (h *UserHandler) Get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "get user")
		return
	}
	response.Success(c, http.StatusOK, p, "user", nil)
}

func (h *UserHandler) Update(c *gin.Context) {
	var patch entity.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err, "update user")
		return
	}
	response.Success(c, http.StatusOK, p, "user updated", nil)
}

func (h *UserHandler) Remove(c *gin.Context) {
	if err := h.Svc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "remove user")
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": true}, "user removed", nil)
}

func (h *UserHandler) Statistics(c *gin.Context) {
	stats, err := h.Svc.Statistics(c.Request.Context())
	if err != nil {
		h.fail(c, err, "statistics")
		return
	}
	response.Success(c, http.StatusOK, stats, "statistics", nil)
}

// Export returns public projections unless ?includePrivate=true.
func (h *UserHandler) Export(c *gin.Context) {
	doc, err := h.Svc.Export(c.Request.Context(), queryBool(c, "includePrivate"))
	if err != nil {
		h.fail(c, err, "export users")
		return
	}
	response.Success(c, http.StatusOK, doc, "users exported", nil)
}

// Import reads the raw document body; ?replace=true clears the store first.
func (h *UserHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	data, err := c.GetRawData()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "could not read import document", nil)
		return
	}
	res, err := h.Svc.Import(c.Request.Context(), data, queryBool(c, "replace"))
	if err != nil {
		h.fail(c, err, "import users")
		return
	}
	response.Success(c, http.StatusOK, res, "users imported", nil)
}

func (h *UserHandler) Storage(c *gin.Context) {
	info, err := h.Svc.Storage(c.Request.Context())
	if err != nil {
		h.fail(c, err, "storage info")
		return
	}
	response.Success(c, http.StatusOK, info, "storage", nil)
}
