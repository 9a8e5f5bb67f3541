package types

import "time"

// Platform represents an OS family for shell dialect selection
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
)

// Valid reports whether the platform is a supported OS family
func (p Platform) Valid() bool {
	switch p {
	case PlatformLinux, PlatformDarwin, PlatformWindows:
		return true
	}
	return false
}

// GeneratedCommand represents a concrete shell command rendered from an intent
type GeneratedCommand struct {
	Command                    string       `json:"command"`
	IntentAction               IntentAction `json:"intent_action"`
	Platform                   Platform     `json:"platform"`
	Description                string       `json:"description"`
	RequiresConfirmation       bool         `json:"requires_confirmation"`
	RequiresDoubleConfirmation bool         `json:"requires_double_confirmation"`
	CausesDowntime             bool         `json:"causes_downtime"`
	Valid                      bool         `json:"valid"`
	Error                      string       `json:"error,omitempty"`
}

// ValidationResult represents the outcome of the security validation of a command
type ValidationResult struct {
	Valid            bool   `json:"valid"`
	Blocked          bool   `json:"blocked"`
	Reason           string `json:"reason,omitempty"`
	MatchedWhitelist string `json:"matched_whitelist,omitempty"`
	MatchedDangerous string `json:"matched_dangerous,omitempty"`
	RequiresApproval bool   `json:"requires_approval"`
}

// ExecutionResult represents the outcome of a command execution
type ExecutionResult struct {
	Success  bool          `json:"success"`
	Output   string        `json:"output"`
	Error    string        `json:"error,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out"`
}
