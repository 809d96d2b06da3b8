package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(allowed []string, method, origin string, preflight bool) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(allowed))
	r.Handle(method, "/api/v1/prospects", func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(method, "/api/v1/prospects", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAllowedOriginIsEchoed(t *testing.T) {
	w := serve([]string{"https://office.example.com/"}, http.MethodGet, "https://Office.example.com", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://Office.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestPreflightFromAllowedOrigin(t *testing.T) {
	w := serve([]string{"https://office.example.com"}, http.MethodOptions, "https://office.example.com", true)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Last-Event-ID")
}

func TestPreflightFromUnknownOriginIsRefused(t *testing.T) {
	w := serve([]string{"https://office.example.com"}, http.MethodOptions, "https://evil.example.net", true)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownOriginSimpleRequestGetsNoGrant(t *testing.T) {
	w := serve([]string{"https://office.example.com"}, http.MethodGet, "https://evil.example.net", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEmptyListAllowsAnyOrigin(t *testing.T) {
	w := serve(nil, http.MethodGet, "http://localhost:5173", false)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
