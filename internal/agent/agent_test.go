package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testKey = "agent-test-key"

func newTestAgent(t *testing.T) (*Agent, *commandRecorder) {
	t.Helper()
	a := New(&Config{
		Address:    ":0",
		APIKey:     testKey,
		DeviceName: "test-box",
		Delay:      20 * time.Millisecond,
	}, zaptest.NewLogger(t))

	rec := &commandRecorder{}
	a.run = rec.run
	return a, rec
}

// commandRecorder captures executed commands instead of running them
type commandRecorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *commandRecorder) run(_ context.Context, name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil
}

func (r *commandRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func doRequest(a *Agent, method, path, key string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	return w
}

func TestStatusUnauthenticated(t *testing.T) {
	a, _ := newTestAgent(t)

	w := doRequest(a, http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-box")
	assert.Contains(t, w.Body.String(), "online")

	w = doRequest(a, http.MethodGet, "/ping", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}

func TestPowerRequiresAPIKey(t *testing.T) {
	a, rec := newTestAgent(t)

	w := doRequest(a, http.MethodPost, "/shutdown", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(a, http.MethodPost, "/shutdown", "wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, rec.count())
}

func TestShutdownCountdownExecutes(t *testing.T) {
	a, rec := newTestAgent(t)

	w := doRequest(a, http.MethodPost, "/shutdown", testKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shutdown initiated")

	require.Eventually(t, func() bool {
		return rec.count() == 1
	}, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	call := rec.calls[0]
	rec.mu.Unlock()
	assert.Equal(t, "shutdown", call[0])
}

func TestAbortCancelsCountdown(t *testing.T) {
	a, rec := newTestAgent(t)

	w := doRequest(a, http.MethodPost, "/restart", testKey, map[string]int{"delay": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(a, http.MethodPost, "/abort", testKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "aborted")

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, rec.count())

	// Abort with nothing pending
	w = doRequest(a, http.MethodPost, "/abort", testKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConcurrentActionsRejected(t *testing.T) {
	a, _ := newTestAgent(t)

	w := doRequest(a, http.MethodPost, "/shutdown", testKey, map[string]int{"delay": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(a, http.MethodPost, "/restart", testKey, map[string]int{"delay": 2})
	assert.Equal(t, http.StatusConflict, w.Code)

	require.True(t, a.Abort())
}

func TestStatusReportsPendingAction(t *testing.T) {
	a, _ := newTestAgent(t)

	doRequest(a, http.MethodPost, "/shutdown", testKey, map[string]int{"delay": 5})

	w := doRequest(a, http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "execute_at")

	a.Abort()
}

func TestPowerCommandSelection(t *testing.T) {
	tests := []struct {
		goos   string
		action string
		name   string
		args   []string
	}{
		{"linux", ActionShutdown, "shutdown", []string{"-h", "now"}},
		{"linux", ActionRestart, "shutdown", []string{"-r", "now"}},
		{"darwin", ActionShutdown, "shutdown", []string{"-h", "now"}},
		{"windows", ActionShutdown, "shutdown", []string{"/s", "/t", "1"}},
		{"windows", ActionRestart, "shutdown", []string{"/r", "/t", "1"}},
	}

	for _, tt := range tests {
		name, args, err := powerCommand(tt.action, tt.goos)
		require.NoError(t, err, "%s on %s", tt.action, tt.goos)
		assert.Equal(t, tt.name, name)
		assert.Equal(t, tt.args, args)
	}

	_, _, err := powerCommand(ActionShutdown, "plan9")
	assert.Error(t, err)

	_, _, err = powerCommand("hibernate", "linux")
	assert.Error(t, err)
}
