package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsRouter(origins ...string) *gin.Engine {
	r := gin.New()
	r.Use(CORS(DefaultCORSConfig(origins)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	return r
}

func corsRequest(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/x", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    string
	}{
		{"exact match", []string{"https://lab.example.org"}, "https://lab.example.org", "https://lab.example.org"},
		{"case insensitive", []string{"https://Lab.example.org"}, "https://lab.example.org", "https://lab.example.org"},
		{"subdomain pattern", []string{"*.example.org"}, "https://nb.example.org", "https://nb.example.org"},
		{"wildcard", []string{"*"}, "https://anywhere.test", "*"},
		{"not allowed", []string{"https://lab.example.org"}, "https://evil.test", ""},
		{"no origin", []string{"*"}, "", ""},
		{"cors disabled", nil, "https://lab.example.org", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := corsRequest(corsRouter(tt.origins...), http.MethodGet, tt.origin)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := corsRouter("https://lab.example.org")

	w := corsRequest(r, http.MethodOptions, "https://lab.example.org")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), HeaderRequestID)
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))

	w = corsRequest(r, http.MethodOptions, "https://evil.test")
	assert.Equal(t, http.StatusTeapot, w.Code, "disallowed preflight falls through to the route")
}

func TestCORS_ExposesRequestID(t *testing.T) {
	w := corsRequest(corsRouter("*"), http.MethodGet, "https://lab.example.org")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), HeaderRequestID)
}
