package domain

import (
	"fmt"
	"time"
)

// RateLimitRule is a fixed-window quota counted per caller.
type RateLimitRule struct {
	Scope  string
	Limit  int
	Window time.Duration
}

const (
	RateLimitScopeRead     = "read"
	RateLimitScopeWrite    = "write"
	RateLimitScopeChatSend = "chat:send"
)

func (r RateLimitRule) Key(caller string) string {
	return fmt.Sprintf("ratelimit:%s:%s", r.Scope, caller)
}

func (r RateLimitRule) Enabled() bool {
	return r.Limit > 0 && r.Window > 0
}
