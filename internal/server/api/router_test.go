package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"akeno/internal/server/approval"
	"akeno/internal/server/audit"
	"akeno/internal/server/command"
	"akeno/internal/server/config"
	"akeno/internal/server/credentials"
	"akeno/internal/server/nlp"
	"akeno/internal/server/ratelimit"
	"akeno/internal/server/security"
	"akeno/internal/server/service"
	"akeno/internal/server/storage"
	"akeno/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testAPIKey = "test-api-key"

// stubRunner returns canned results without spawning processes
type stubRunner struct{}

func (stubRunner) Execute(_ context.Context, _ string, _ command.ExecuteOptions) types.ExecutionResult {
	return types.ExecutionResult{Success: true, Output: "ok", Duration: time.Millisecond}
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	logger := zaptest.NewLogger(t)

	cfg := &config.Config{}
	cfg.API.Auth.Enabled = true
	cfg.API.Auth.APIKeys = []string{testAPIKey}

	detector := command.NewDetector()
	kv := storage.NewMemoryStore()
	creds, err := credentials.NewStore(credentials.Config{Secret: "test-master-secret"}, kv, logger)
	require.NoError(t, err)

	approvals := approval.NewManager(time.Second, logger)
	t.Cleanup(approvals.Stop)

	svc := service.New(
		nlp.NewParser(logger),
		command.NewGenerator(detector, command.Defaults{}, logger),
		security.NewValidator(logger),
		ratelimit.NewMemoryLimiter(time.Hour, 10),
		approvals,
		stubRunner{},
		detector,
		audit.NewLogger(kv, nil, logger),
		creds,
		kv,
		nil,
		service.Options{},
		logger,
	)

	return NewRouter(cfg, svc, logger)
}

func doJSON(t *testing.T, r *Router, method, path string, body any, apiKey string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/health", nil, testAPIKey)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMissingAPIKeyRejected(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/health", nil, "wrong-key")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQueryEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/query", gin.H{
		"user_id": "user-1",
		"query":   "show uptime",
	}, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data service.QueryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, service.StatusExecuted, envelope.Data.Status)
	require.NotNil(t, envelope.Data.Result)
	assert.True(t, envelope.Data.Result.Success)
}

func TestQueryEndpointValidation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/query", gin.H{"query": "show uptime"}, testAPIKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApprovalFlowOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/query", gin.H{
		"user_id": "user-1",
		"query":   "restart the bot",
	}, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data service.QueryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, service.StatusPendingApproval, envelope.Data.Status)
	approvalID := envelope.Data.ApprovalID
	require.NotEmpty(t, approvalID)

	// Foreign approver is rejected
	w = doJSON(t, r, http.MethodPost, "/api/v1/approvals/"+approvalID+"/approve",
		gin.H{"user_id": "intruder"}, testAPIKey)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Requester approves
	w = doJSON(t, r, http.MethodPost, "/api/v1/approvals/"+approvalID+"/approve",
		gin.H{"user_id": "user-1"}, testAPIKey)
	assert.Equal(t, http.StatusOK, w.Code)

	// Second resolution conflicts
	w = doJSON(t, r, http.MethodPost, "/api/v1/approvals/"+approvalID+"/cancel",
		gin.H{"user_id": "user-1"}, testAPIKey)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCredentialEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/v1/credentials/web-1", gin.H{
		"type":     "ssh",
		"host":     "web-1.internal",
		"username": "deploy",
		"secret":   "key-material",
	}, testAPIKey)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "key-material")

	w = doJSON(t, r, http.MethodGet, "/api/v1/credentials", nil, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "web-1.internal")
	assert.NotContains(t, w.Body.String(), "key-material")

	w = doJSON(t, r, http.MethodDelete, "/api/v1/credentials/web-1", nil, testAPIKey)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/v1/credentials/web-1", nil, testAPIKey)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditEndpoint(t *testing.T) {
	r := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/query", gin.H{
		"user_id": "user-1",
		"query":   "show uptime",
	}, testAPIKey)

	w := doJSON(t, r, http.MethodGet, "/api/v1/audit?user_id=user-1", nil, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "uptime")

	w = doJSON(t, r, http.MethodGet, "/api/v1/audit?user_id=nobody", nil, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "uptime")
}
