package usage

import (
	"time"

	"github.com/google/uuid"

	"github.com/creatorhub-platform/creatorhub/internal/subscription"
)

// Record matches the usage_records table schema: one row per user holding
// all per-feature counters for the current window.
type Record struct {
	UserID    uuid.UUID       `json:"user_id"`
	Counters  map[Feature]int `json:"counters"`
	ResetAt   time.Time       `json:"reset_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Counter returns the current count for a feature; absent keys are 0.
func (r *Record) Counter(f Feature) int {
	if r.Counters == nil {
		return 0
	}
	return r.Counters[f]
}

// CheckResult is the outcome of a quota check.
type CheckResult struct {
	CanUse       bool              `json:"can_use"`
	Message      string            `json:"message"`
	CurrentUsage int               `json:"current_usage"`
	Limit        int               `json:"limit"`
	Plan         subscription.Plan `json:"plan"`
}

// FeatureUsage is one entry of the status snapshot rendered by quota widgets.
type FeatureUsage struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// Status is the full per-user usage snapshot for the UI.
type Status struct {
	Plan    subscription.Plan        `json:"plan"`
	ResetAt time.Time                `json:"reset_at"`
	Usage   map[Feature]FeatureUsage `json:"usage"`
}
