package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/slamdunk/internal/config"
)

func wsRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", WebSocketCORSCheck(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func upgradeRequest(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestWebSocketCORSCheck(t *testing.T) {
	prod := &config.Config{Environment: "production", FrontendURL: "https://tables.example.com/"}
	dev := &config.Config{Environment: "development"}

	tests := []struct {
		name   string
		cfg    *config.Config
		req    *http.Request
		status int
	}{
		{"configured origin", prod, upgradeRequest("https://tables.example.com"), http.StatusOK},
		{"foreign origin", prod, upgradeRequest("https://evil.example.com"), http.StatusForbidden},
		{"native host without origin", prod, upgradeRequest(""), http.StatusOK},
		{"localhost in development", dev, upgradeRequest("http://localhost:3000"), http.StatusOK},
		{"localhost in production", prod, upgradeRequest("http://localhost:3000"), http.StatusForbidden},
		{"plain request skips the check", prod, httptest.NewRequest(http.MethodGet, "/ws", nil), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			wsRouter(tt.cfg).ServeHTTP(w, tt.req)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestCORSMiddlewareWithoutFrontend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(&config.Config{Environment: "production"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q, want *", got)
	}
}
