package models

import (
	"time"
)

// EndpointClass groups endpoints that share a limit.
type EndpointClass string

const (
	// ClassAlert covers emergency creation, which fans out notifications
	// and an AI draft.
	ClassAlert EndpointClass = "alert"
	// ClassAI covers the free-form assistant.
	ClassAI EndpointClass = "ai"
)

// Limit is the number of requests allowed per sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, only set when not allowed
}

// Key builds the bucket key for a client in a class.
func Key(class EndpointClass, clientIP string) string {
	return "ratelimit:" + string(class) + ":" + clientIP
}
