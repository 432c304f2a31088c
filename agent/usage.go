package agent

import (
	"golang.org/x/time/rate"
)

// UsageMeter enforces a per-task usage budget: a maximum number of model
// requests and a maximum number of tokens. The request budget is modeled as
// a non-refilling token bucket (golang.org/x/time/rate with rate 0 and burst
// equal to the request limit) so "at most N requests" falls out of the
// library's standard semantics instead of a hand-rolled counter.
type UsageMeter struct {
	requests  *rate.Limiter
	maxTokens int
	usedTokens int
}

// NewUsageMeter constructs a meter. A zero maxRequests or maxTokens disables
// that half of the budget.
func NewUsageMeter(maxRequests, maxTokens int) *UsageMeter {
	m := &UsageMeter{maxTokens: maxTokens}
	if maxRequests > 0 {
		m.requests = rate.NewLimiter(0, maxRequests)
	}
	return m
}

// AllowRequest reports whether another model request fits the remaining
// request budget, consuming one unit of budget if so.
func (m *UsageMeter) AllowRequest() bool {
	if m == nil || m.requests == nil {
		return true
	}
	return m.requests.Allow()
}

// AddTokens records n additional tokens spent and reports whether the task
// remains within its token budget.
func (m *UsageMeter) AddTokens(n int) bool {
	if m == nil {
		return true
	}
	m.usedTokens += n
	return m.maxTokens <= 0 || m.usedTokens <= m.maxTokens
}
