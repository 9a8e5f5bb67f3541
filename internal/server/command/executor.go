package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"akeno/internal/types"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds a single command execution
	DefaultTimeout = 30 * time.Second

	// DefaultMaxOutputChars keeps results transport-safe for chat messages
	DefaultMaxOutputChars = 1900

	truncationMarker = "... [output truncated]"
)

// ExecuteOptions configures a single execution
type ExecuteOptions struct {
	Timeout        time.Duration
	MaxOutputChars int
	Platform       types.Platform

	UseRemote  bool
	RemoteHost string
	RemoteUser string
	RemotePort int
}

// Runner is the execution contract consumed by the pipeline service
type Runner interface {
	Execute(ctx context.Context, command string, opts ExecuteOptions) types.ExecutionResult
}

// Executor runs validated commands as local subprocesses or over an ssh
// session, with a hard timeout and a bounded output size
type Executor struct {
	detector *Detector
	logger   *zap.Logger
}

// _ implements Runner
var _ Runner = (*Executor)(nil)

// NewExecutor creates a new command executor
func NewExecutor(detector *Detector, logger *zap.Logger) *Executor {
	return &Executor{
		detector: detector,
		logger:   logger,
	}
}

// Execute runs a command and always returns a structured result. Failure
// modes (empty command, spawn error, timeout, non-zero exit) never surface
// as errors; a timeout force-kills the process. Duration is populated on
// every path that spawns a process.
func (e *Executor) Execute(ctx context.Context, command string, opts ExecuteOptions) types.ExecutionResult {
	if strings.TrimSpace(command) == "" {
		return types.ExecutionResult{
			Success:  false,
			Error:    "empty command",
			ExitCode: -1,
		}
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxOutputChars <= 0 {
		opts.MaxOutputChars = DefaultMaxOutputChars
	}
	platform := opts.Platform
	if platform == "" {
		platform = e.detector.Local()
	}

	execCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var cmd *exec.Cmd
	if opts.UseRemote {
		cmd = e.remoteCommand(execCtx, command, opts)
	} else {
		cmd = e.localCommand(execCtx, command, platform)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := types.ExecutionResult{
		Output:   truncate(stdout.String(), opts.MaxOutputChars),
		Duration: duration,
	}

	if execCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		result.Error = fmt.Sprintf("command timed out after %s", opts.Timeout)
		e.logger.Warn("Command timed out",
			zap.String("command", command),
			zap.Duration("timeout", opts.Timeout))
		return result
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			result.Error = truncate(strings.TrimSpace(stderr.String()), opts.MaxOutputChars)
			if result.Error == "" {
				result.Error = err.Error()
			}
		} else {
			// Spawn failure, no process was started
			result.ExitCode = -1
			result.Error = err.Error()
		}
		e.logger.Debug("Command failed",
			zap.String("command", command),
			zap.Int("exit_code", result.ExitCode),
			zap.Duration("duration", duration))
		return result
	}

	result.Success = true
	e.logger.Debug("Command completed",
		zap.String("command", command),
		zap.Duration("duration", duration))

	return result
}

// localCommand builds the platform specific local shell invocation
func (e *Executor) localCommand(ctx context.Context, command string, platform types.Platform) *exec.Cmd {
	if platform == types.PlatformWindows {
		return exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", command)
	}
	return exec.CommandContext(ctx, "/bin/sh", "-c", command)
}

// remoteCommand builds the ssh invocation. The command is shell-escaped
// before interpolation as defense in depth on top of the validator, not
// as a substitute for it.
func (e *Executor) remoteCommand(ctx context.Context, command string, opts ExecuteOptions) *exec.Cmd {
	port := opts.RemotePort
	if port == 0 {
		port = 22
	}

	target := opts.RemoteHost
	if opts.RemoteUser != "" {
		target = opts.RemoteUser + "@" + opts.RemoteHost
	}

	args := []string{
		"-o", "BatchMode=yes",
		"-o", "StrictHostKeyChecking=accept-new",
		"-o", fmt.Sprintf("ConnectTimeout=%d", 10),
		"-p", fmt.Sprintf("%d", port),
		target,
		shellEscape(command),
	}
	return exec.CommandContext(ctx, "ssh", args...)
}

// shellEscape wraps a command in single quotes for safe interpolation
func shellEscape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// truncate caps output at max characters with a visible marker, never
// dropping silently
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= len(truncationMarker) {
		return s[:max]
	}
	return s[:max-len(truncationMarker)] + truncationMarker
}
