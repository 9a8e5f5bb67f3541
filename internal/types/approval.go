package types

import "time"

// ApprovalResolution represents the terminal state of a pending approval
type ApprovalResolution string

const (
	ResolutionApproved  ApprovalResolution = "approved"
	ResolutionCancelled ApprovalResolution = "cancelled"
	ResolutionTimedOut  ApprovalResolution = "timed_out"
)

// PendingApproval represents an unresolved human confirmation gate.
// Keyed by the outbound prompt message ID so that two simultaneous
// requests from the same user stay independent.
type PendingApproval struct {
	MessageID   string             `json:"message_id"`
	Command     GeneratedCommand   `json:"command"`
	RequesterID string             `json:"requester_id"`
	CreatedAt   time.Time          `json:"created_at"`
	Resolved    bool               `json:"resolved"`
	Resolution  ApprovalResolution `json:"resolution,omitempty"`
}
