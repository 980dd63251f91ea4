package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingModule struct{}

func (pingModule) Register(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong:"+c.GetString("tag")) })
}

func TestRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := NewRegistry(gin.New())
	reg.Use(func(c *gin.Context) { c.Set("tag", "mw"); c.Next() })
	reg.Add(pingModule{})
	reg.RegisterAll()

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		reg.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/api/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong:mw", w.Body.String())

	w = get("/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = get("/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "route not found")
}
