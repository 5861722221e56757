package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(origins []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/api/v1/calculator/grade-scale", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/api/v1/calculator/grade-scale", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/api/v1/calculator/grade-scale", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCORSAllowListedOrigin(t *testing.T) {
	w := serve([]string{"https://planner.example/"}, http.MethodGet, "https://planner.example")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://planner.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestCORSUnknownOrigin(t *testing.T) {
	w := serve([]string{"https://planner.example"}, http.MethodGet, "https://evil.example")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	preflight := serve([]string{"https://planner.example"}, http.MethodOptions, "https://evil.example")
	assert.Equal(t, http.StatusForbidden, preflight.Code)
}

func TestCORSWildcard(t *testing.T) {
	w := serve([]string{"*"}, http.MethodOptions, "https://anywhere.example")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}
