package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	personaModel "github.com/zhouzirui/persona-chat/backend/internal/model/persona"
	"github.com/zhouzirui/persona-chat/backend/internal/observability/metrics"
	"github.com/zhouzirui/persona-chat/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/persona-chat/backend/internal/service/chat"
	"github.com/zhouzirui/persona-chat/backend/pkg/logging"
)

type echoProvider struct{}

func (echoProvider) Name() string { return "echo" }

func (echoProvider) Complete(_ context.Context, req ai.Request) (ai.Response, error) {
	return ai.Response{Text: "heard: " + req.Message, HasContent: true}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	personas := personaModel.NewMemoryStore(personaModel.Seed())
	svc, err := ai.NewService(echoProvider{}, chatservice.NewService(), personas, ai.Options{
		Timeout: time.Second,
		Logger:  logging.Discard(),
		Metrics: metrics.NewChatMetrics(reg),
	})
	require.NoError(t, err)

	return NewRouter(Dependencies{
		Personas:       personas,
		Chat:           svc,
		Logger:         logging.Discard(),
		AllowedOrigins: []string{"https://chat.example"},
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func TestRouterEndToEnd(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/personas", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"surfer":{"name":"Surfer"}`)

	body, _ := json.Marshal(map[string]string{"message": "Hello", "persona": "pirate", "session_id": "s1"})
	req = httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	req.Header.Set("Origin", "https://chat.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://chat.example", rec.Header().Get("Access-Control-Allow-Origin"))

	var reply map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "pirate", reply["persona"])
	assert.True(t, strings.HasSuffix(reply["message"], "\n\nUser: Hello"))

	req = httptest.NewRequest(http.MethodPost, "/api/clear", strings.NewReader(`{"session_id":"s1"}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())
}

func TestRouterHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	body := strings.NewReader(`{"message":"hi"}`)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/chat", body))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `persona_chat_requests_total{outcome="completed",persona="default"} 1`)
}

func TestRouterPreflightUsesRouteMethods(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://chat.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://chat.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Request-Id")
}

func TestOriginChecker(t *testing.T) {
	assert.Nil(t, originChecker([]string{"*"}))

	check := originChecker([]string{"https://chat.example"})
	req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://chat.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
}
