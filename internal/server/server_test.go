package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echiveai-alt/funnytime2-sub001/internal/pipeline"
	"github.com/echiveai-alt/funnytime2-sub001/internal/server/ratelimit"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
	"github.com/echiveai-alt/funnytime2-sub001/internal/usage"
)

// fakeAnalyzer records the request and replays progress through the context callback
type fakeAnalyzer struct {
	mu     sync.Mutex
	result *types.AnalysisResult
	err    error
	got    types.AnalysisRequest
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error) {
	f.mu.Lock()
	f.got = req
	f.mu.Unlock()

	if cb := pipeline.ProgressFromContext(ctx); cb != nil {
		cb(pipeline.ProgressEvent{Stage: types.StageExtracting, Message: "Extracting job requirements", Content: "large"})
		cb(pipeline.ProgressEvent{Stage: types.StageMatching, Message: "Matching experience"})
	}
	return f.result, f.err
}

type fakeUsage struct {
	u   usage.Usage
	err error
}

func (f *fakeUsage) Get(context.Context, string) (usage.Usage, error) {
	return f.u, f.err
}

type requestObservation struct {
	method, path string
	status       int
}

type fakeRequestMetrics struct {
	mu   sync.Mutex
	seen []requestObservation
}

func (f *fakeRequestMetrics) ObserveRequest(method, path string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, requestObservation{method, path, status})
}

type testEnv struct {
	server   *Server
	analyzer *fakeAnalyzer
	usage    *fakeUsage
	metrics  *fakeRequestMetrics
	token    string
	userID   uuid.UUID
}

func newTestEnv(t *testing.T, limiter *ratelimit.Limiter) *testEnv {
	t.Helper()
	jwtService := setupTestJWTService(t, 24)
	userID := uuid.New()
	token, err := jwtService.GenerateToken(userID)
	require.NoError(t, err)

	env := &testEnv{
		analyzer: &fakeAnalyzer{result: &types.AnalysisResult{
			JobTitle: "Backend Engineer",
			Stages:   []types.Stage{types.StageStart, types.StageDone},
		}},
		usage: &fakeUsage{u: usage.Usage{
			Plan: usage.DefaultPlan, AnalysesLimit: 10, AnalysesUsed: 3, BulletsGenerated: 12,
			ResetsAt: time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		}},
		metrics: &fakeRequestMetrics{},
		token:   token,
		userID:  userID,
	}
	env.server = New(DefaultConfig(), Deps{
		Analyzer:       env.analyzer,
		Tokens:         jwtService.AsTokenValidator(),
		Usage:          env.usage,
		Limiter:        limiter,
		Metrics:        env.metrics,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { io.WriteString(w, "# metrics\n") }), //nolint:errcheck
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return env
}

func (e *testEnv) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestAnalyze_Success(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/analyses", `{"jobDescription":"We need a Go engineer","keywordMatchType":"flexible"}`, true)

	require.Equal(t, http.StatusOK, w.Code)
	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Backend Engineer", result.JobTitle)

	assert.Equal(t, env.userID.String(), env.analyzer.got.UserID, "identity comes from the token")
	assert.Equal(t, types.MatchModeFlexible, env.analyzer.got.KeywordMatchType)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAnalyze_RequiresToken(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/analyses", `{"jobDescription":"x"}`, false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, pipeline.CodeAuth, decodeError(t, w).Code)
	assert.Empty(t, env.analyzer.got.UserID, "analyzer never called")
}

func TestAnalyze_BadBody(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `jobDescription=x`},
		{"unknown field", `{"jobDescription":"x","userId":"someone-else"}`},
		{"wrong type", `{"jobDescription":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/analyses", tt.body, true)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, CodeBadRequest, decodeError(t, w).Code)
		})
	}
}

func TestAnalyze_PipelineErrors(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{&pipeline.Error{Code: pipeline.CodeValidation, Message: "too short"}, http.StatusBadRequest, pipeline.CodeValidation},
		{&pipeline.Error{Code: pipeline.CodeQuotaExceeded, Message: "limit"}, http.StatusTooManyRequests, pipeline.CodeQuotaExceeded},
		{&pipeline.Error{Code: pipeline.CodeTransport, Message: "upstream", Retryable: true}, http.StatusBadGateway, pipeline.CodeTransport},
		{&pipeline.Error{Code: pipeline.CodeExtraction, Message: "bad output"}, http.StatusUnprocessableEntity, pipeline.CodeExtraction},
		{&pipeline.Error{Code: pipeline.CodeScoringConfig, Message: "bad category"}, http.StatusInternalServerError, pipeline.CodeScoringConfig},
		{errors.New("boom"), http.StatusInternalServerError, pipeline.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.analyzer.err = tt.err

			w := env.do(http.MethodPost, "/analyses", `{"jobDescription":"x"}`, true)

			assert.Equal(t, tt.wantStatus, w.Code)
			detail := decodeError(t, w)
			assert.Equal(t, tt.wantCode, detail.Code)
			if pErr, ok := tt.err.(*pipeline.Error); ok {
				assert.Equal(t, pErr.Retryable, detail.Retryable)
				assert.Equal(t, pErr.Message, detail.Message)
			}
		})
	}
}

func TestAnalyzeStream(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/analyses/stream", `{"jobDescription":"x"}`, true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "event: stage\ndata: {\"stage\":\"EXTRACTING\"")
	assert.Contains(t, body, "event: stage\ndata: {\"stage\":\"MATCHING\"")
	assert.Contains(t, body, "event: result\n")
	assert.NotContains(t, body, "large", "stage events carry no payload")
}

func TestAnalyzeStream_Error(t *testing.T) {
	env := newTestEnv(t, nil)
	env.analyzer.err = &pipeline.Error{Code: pipeline.CodeTransport, Message: "upstream", Retryable: true}

	w := env.do(http.MethodPost, "/analyses/stream", `{"jobDescription":"x"}`, true)

	body := w.Body.String()
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, `"code":"TRANSPORT_ERROR"`)
	assert.NotContains(t, body, "event: result")
}

func TestUsage(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/usage", "", true)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Starter", body["plan"])
	assert.Equal(t, 7.0, body["analysesLeft"])
	assert.Equal(t, 12.0, body["bulletsGenerated"])
}

func TestUsage_StoreFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.usage.err = errors.New("db down")

	w := env.do(http.MethodGet, "/usage", "", true)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, decodeError(t, w).Retryable)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, w.Code)

	env.server.deps.Health = func(context.Context) error { return errors.New("db down") }
	w = env.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpointAndRequestMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/metrics", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# metrics")

	env.do(http.MethodPost, "/analyses", `{"jobDescription":"x"}`, true)
	env.do(http.MethodGet, "/nope", "", false)

	assert.Contains(t, env.metrics.seen, requestObservation{"GET", "GET /metrics", http.StatusOK})
	assert.Contains(t, env.metrics.seen, requestObservation{"POST", "POST /analyses", http.StatusOK})
	assert.Contains(t, env.metrics.seen, requestObservation{"GET", "unmatched", http.StatusNotFound})
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/analyses", Method: "POST", Limit: 2, Window: time.Hour, Burst: 2},
		},
	})
	defer limiter.Stop()
	env := newTestEnv(t, limiter)

	for i := 0; i < 2; i++ {
		w := env.do(http.MethodPost, "/analyses", `{"jobDescription":"x"}`, true)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := env.do(http.MethodPost, "/analyses", `{"jobDescription":"x"}`, true)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	detail := decodeError(t, w)
	assert.Equal(t, CodeRateLimited, detail.Code)
	assert.True(t, detail.Retryable)

	w = env.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodOptions, "/analyses", "", false)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestHTTPStatus(t *testing.T) {
	tests := map[string]int{
		pipeline.CodeValidation:    http.StatusBadRequest,
		pipeline.CodeAuth:          http.StatusUnauthorized,
		pipeline.CodeTransport:     http.StatusBadGateway,
		pipeline.CodeExtraction:    http.StatusUnprocessableEntity,
		pipeline.CodeGeneration:    http.StatusUnprocessableEntity,
		pipeline.CodeScoringConfig: http.StatusInternalServerError,
		pipeline.CodeCandidateData: http.StatusInternalServerError,
		pipeline.CodeInternal:      http.StatusInternalServerError,
		pipeline.CodeQuotaExceeded: http.StatusTooManyRequests,
		pipeline.CodeCanceled:      statusClientClosedRequest,
		CodeRateLimited:            http.StatusTooManyRequests,
		CodeBadRequest:             http.StatusBadRequest,
	}
	for code, want := range tests {
		assert.Equal(t, want, HTTPStatus(code), code)
	}
}
