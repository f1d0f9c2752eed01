package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRouter_CORSPreflight(t *testing.T) {
	r := NewRouter(zap.NewNop(), Options{Name: "api", Mode: gin.TestMode})
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuildServer(t *testing.T) {
	srv := BuildServer(Addr("127.0.0.1", 8080), http.NewServeMux(), zap.NewNop(), time.Second, 2*time.Second, 3*time.Second)
	assert.Equal(t, "127.0.0.1:8080", srv.Addr)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
	assert.NotNil(t, srv.ErrorLog)
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8080", BaseURL("", 8080))
	assert.Equal(t, "http://127.0.0.1:8080", BaseURL("0.0.0.0", 8080))
	assert.Equal(t, "http://10.0.0.5:9090", BaseURL("10.0.0.5", 9090))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv := BuildServer("127.0.0.1:0", http.NewServeMux(), zap.NewNop(), time.Second, time.Second, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, zap.NewNop(), time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenError(t *testing.T) {
	srv := BuildServer("256.0.0.1:bad", http.NewServeMux(), zap.NewNop(), time.Second, time.Second, time.Second)
	assert.Error(t, Run(context.Background(), srv, zap.NewNop(), time.Second))
}
