package agent

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Power actions
const (
	ActionShutdown = "shutdown"
	ActionRestart  = "restart"
)

// runFunc executes a platform power command; injected so tests never
// touch the real machine
type runFunc func(ctx context.Context, name string, args ...string) error

// countdown tracks one pending power action
type countdown struct {
	action    string
	executeAt time.Time
	cancel    context.CancelFunc
}

// Agent serves the remote power endpoints on a managed host. One power
// action may be pending at a time; abort cancels it before the delay
// elapses.
type Agent struct {
	cfg    *Config
	logger *zap.Logger
	run    runFunc

	mu      sync.Mutex
	pending *countdown

	started time.Time
}

// New creates a new agent
func New(cfg *Config, logger *zap.Logger) *Agent {
	return &Agent{
		cfg:    cfg,
		logger: logger,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
		started: time.Now(),
	}
}

// Router builds the HTTP handler
func (a *Agent) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// Status endpoints are unauthenticated so the bot can probe reachability
	r.GET("/ping", a.ping)
	r.GET("/status", a.status)

	authed := r.Group("/", a.auth())
	{
		authed.POST("/shutdown", a.power(ActionShutdown))
		authed.POST("/restart", a.power(ActionRestart))
		authed.POST("/abort", a.abort)
	}

	return r
}

// auth validates the X-API-Key header
func (a *Agent) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(a.cfg.APIKey)) != 1 {
			a.logger.Warn("Unauthorized request",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
		c.Next()
	}
}

func (a *Agent) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"pong":      true,
		"device":    a.cfg.DeviceName,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (a *Agent) status(c *gin.Context) {
	a.mu.Lock()
	var pending gin.H
	if a.pending != nil {
		pending = gin.H{
			"action":     a.pending.action,
			"execute_at": a.pending.executeAt.Format(time.RFC3339),
		}
	}
	a.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"device":    a.cfg.DeviceName,
		"platform":  runtime.GOOS,
		"uptime":    time.Since(a.started).Round(time.Second).String(),
		"pending":   pending,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// power returns the handler for one power action
func (a *Agent) power(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Delay int `json:"delay"`
		}
		_ = c.ShouldBindJSON(&req)

		delay := a.cfg.Delay
		if req.Delay > 0 {
			delay = time.Duration(req.Delay) * time.Second
		}

		if err := a.schedule(action, delay); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		a.logger.Info("Power action scheduled",
			zap.String("action", action),
			zap.Duration("delay", delay),
			zap.String("ip", c.ClientIP()))

		c.JSON(http.StatusOK, gin.H{
			"status":    "success",
			"message":   action + " initiated",
			"device":    a.cfg.DeviceName,
			"delay":     int(delay.Seconds()),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func (a *Agent) abort(c *gin.Context) {
	if !a.Abort() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pending action"})
		return
	}

	a.logger.Info("Pending power action aborted", zap.String("ip", c.ClientIP()))
	c.JSON(http.StatusOK, gin.H{"status": "aborted", "device": a.cfg.DeviceName})
}

// schedule arms the countdown. Only one action may be pending; a second
// request is rejected instead of replacing the first.
func (a *Agent) schedule(action string, delay time.Duration) error {
	name, args, err := powerCommand(action, runtime.GOOS)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending != nil {
		return fmt.Errorf("%s already pending", a.pending.action)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.pending = &countdown{
		action:    action,
		executeAt: time.Now().Add(delay),
		cancel:    cancel,
	}

	go a.fire(ctx, action, delay, name, args)
	return nil
}

// fire waits out the countdown and executes unless aborted
func (a *Agent) fire(ctx context.Context, action string, delay time.Duration, name string, args []string) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()

	a.logger.Info("Executing power command",
		zap.String("action", action),
		zap.String("command", name))

	execCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.run(execCtx, name, args...); err != nil {
		a.logger.Error("Power command failed",
			zap.String("action", action),
			zap.Error(err))
	}
}

// Abort cancels the pending countdown, reporting whether one existed
func (a *Agent) Abort() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending == nil {
		return false
	}
	a.pending.cancel()
	a.pending = nil
	return true
}

// powerCommand maps an action to the platform command
func powerCommand(action, goos string) (string, []string, error) {
	switch goos {
	case "windows":
		switch action {
		case ActionShutdown:
			return "shutdown", []string{"/s", "/t", "1"}, nil
		case ActionRestart:
			return "shutdown", []string{"/r", "/t", "1"}, nil
		}
	case "linux", "darwin":
		switch action {
		case ActionShutdown:
			return "shutdown", []string{"-h", "now"}, nil
		case ActionRestart:
			return "shutdown", []string{"-r", "now"}, nil
		}
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
	return "", nil, fmt.Errorf("unsupported action: %s", action)
}
