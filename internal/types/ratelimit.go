package types

import "time"

// RateLimitResult represents the outcome of a rate limit check
type RateLimitResult struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	Count     int       `json:"count"`
	ResetTime time.Time `json:"reset_time"`
}
