package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestOriginSet(t *testing.T) {
	open := NewOriginSet(nil)
	assert.True(t, open.Allowed("https://evil.example"))

	s := NewOriginSet([]string{" https://app.example/ ", ""})
	assert.True(t, s.Allowed("https://app.example"))
	assert.True(t, s.Allowed(""), "non-browser clients carry no origin")
	assert.False(t, s.Allowed("https://evil.example"))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, s.CheckOrigin(req))
}

func newEngine(s OriginSet) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	m := NewManager()
	m.Add(Cors(s))
	r.Use(m.Use())
	GET(r, "/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") }, RouteOpt{})
	GET(r, "/auth", func(c *gin.Context) { c.String(http.StatusOK, "ok") }, RouteOpt{
		IsAuth: true,
		Auth:   func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) },
	})
	return r
}

func TestCors(t *testing.T) {
	r := newEngine(NewOriginSet([]string{"https://app.example"}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRouteOptAuth(t *testing.T) {
	r := newEngine(NewOriginSet(nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestManagerAbortStops(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	m := NewManager()
	var second bool
	m.Add(func(c *gin.Context) { c.AbortWithStatus(http.StatusTeapot) })
	m.Add(func(c *gin.Context) { second = true })
	r.Use(m.Use())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.False(t, second)
}

func TestManagersAreIndependent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	serve := func(m *MiddlewareManager) int {
		r := gin.New()
		r.Use(m.Use())
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		return w.Code
	}

	blocked := NewManager()
	blocked.Add(func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) })
	open := NewManager()

	assert.Equal(t, http.StatusForbidden, serve(blocked))
	assert.Equal(t, http.StatusOK, serve(open))

	blocked.Clear()
	assert.Equal(t, http.StatusOK, serve(blocked))
}
