package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Plan is the subscription tier governing which usage limits apply.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

const (
	StatusActive   = "active"
	StatusCanceled = "canceled"
	StatusPastDue  = "past_due"
)

// Subscription matches the subscriptions table schema. Billing itself is
// handled upstream; this service only reads the resulting plan.
type Subscription struct {
	UserID           uuid.UUID  `json:"user_id"`
	Plan             Plan       `json:"plan"`
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Entitlement is what the quota layer needs to know about a user: the
// effective plan and, for pro users, when the billing period rolls over.
type Entitlement struct {
	Plan             Plan
	CurrentPeriodEnd *time.Time
}
