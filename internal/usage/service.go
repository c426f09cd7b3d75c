package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/creatorhub-platform/creatorhub/internal/metrics"
	"github.com/creatorhub-platform/creatorhub/internal/subscription"
)

// PlanResolver supplies the user's effective plan. Implemented by
// subscription.Service.
type PlanResolver interface {
	Entitlement(ctx context.Context, userID uuid.UUID) (subscription.Entitlement, error)
}

// Events receives operational usage notifications. Implementations are best
// effort and must never fail the request path; a nil Events disables
// publishing.
type Events interface {
	UsageIncremented(ctx context.Context, userID uuid.UUID, feature Feature)
	LimitReached(ctx context.Context, userID uuid.UUID, feature Feature, limit int)
	WindowReset(ctx context.Context, userID uuid.UUID)
}

// Service decides whether an action is permitted under the user's plan and
// accounts for usage after the action completes. Check and Increment are
// separate round trips with no transaction spanning them: concurrent
// requests from one user can race past a limit by the degree of concurrency.
// That matches how the counters have always behaved and callers rely on
// Check being side-effect free, so the pair stays non-atomic.
type Service struct {
	store  Store
	plans  PlanResolver
	events Events
}

func NewService(store Store, plans PlanResolver, events Events) *Service {
	return &Service{store: store, plans: plans, events: events}
}

// window is the rolling reset interval applied to every plan.
const window = 24 * time.Hour

// Check reports whether the user may perform the feature right now. The only
// write it can perform is the lazy window reset; counters are otherwise
// untouched.
func (s *Service) Check(ctx context.Context, userID uuid.UUID, f Feature) (*CheckResult, error) {
	if _, ok := featureSet[f]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, f)
	}

	ent, err := s.plans.Entitlement(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolving plan: %w", err)
	}

	rec, created, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit := LimitFor(ent.Plan, f)

	// A record created on this call trivially has capacity; skip the limit
	// comparison entirely rather than re-reading the fresh row.
	if created {
		metrics.QuotaChecksTotal.WithLabelValues(string(f), "allowed").Inc()
		return s.allowed(ent.Plan, f, 0, limit), nil
	}

	if s.shouldReset(rec, ent) {
		if err := s.store.Reset(ctx, userID); err != nil {
			return nil, err
		}
		metrics.QuotaResetsTotal.Inc()
		if s.events != nil {
			s.events.WindowReset(ctx, userID)
		}
		// The reset itself grants a fresh window; no second read needed.
		metrics.QuotaChecksTotal.WithLabelValues(string(f), "allowed").Inc()
		return s.allowed(ent.Plan, f, 0, limit), nil
	}

	current := rec.Counter(f)
	if limit == Unlimited || current < limit {
		metrics.QuotaChecksTotal.WithLabelValues(string(f), "allowed").Inc()
		return s.allowed(ent.Plan, f, current, limit), nil
	}

	metrics.QuotaChecksTotal.WithLabelValues(string(f), "denied").Inc()
	if s.events != nil {
		s.events.LimitReached(ctx, userID, f, limit)
	}

	msg := fmt.Sprintf("Daily limit of %d reached. Upgrade to Pro for higher limits.", limit)
	if ent.Plan == subscription.PlanPro {
		msg = fmt.Sprintf("Daily limit of %d reached. Your limit resets tomorrow.", limit)
	}
	return &CheckResult{
		CanUse:       false,
		Message:      msg,
		CurrentUsage: current,
		Limit:        limit,
		Plan:         ent.Plan,
	}, nil
}

// Increment records one completed use of a feature. It must be called after
// the action succeeded; a failure here is surfaced but never rolls the
// user-visible work back.
func (s *Service) Increment(ctx context.Context, userID uuid.UUID, f Feature) error {
	if _, ok := featureSet[f]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFeature, f)
	}

	ent, err := s.plans.Entitlement(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolving plan: %w", err)
	}

	rec, created, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	if !created && s.shouldReset(rec, ent) {
		if err := s.store.Reset(ctx, userID); err != nil {
			return err
		}
		metrics.QuotaResetsTotal.Inc()
		if s.events != nil {
			s.events.WindowReset(ctx, userID)
		}
	}

	if err := s.store.Increment(ctx, userID, f); err != nil {
		return err
	}

	metrics.UsageIncrementsTotal.WithLabelValues(string(f)).Inc()
	if s.events != nil {
		s.events.UsageIncremented(ctx, userID, f)
	}
	return nil
}

// Status returns the full per-feature snapshot for quota widgets, applying
// the lazy reset first so the UI never renders a stale window.
func (s *Service) Status(ctx context.Context, userID uuid.UUID) (*Status, error) {
	ent, err := s.plans.Entitlement(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolving plan: %w", err)
	}

	rec, created, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !created && s.shouldReset(rec, ent) {
		if err := s.store.Reset(ctx, userID); err != nil {
			return nil, err
		}
		metrics.QuotaResetsTotal.Inc()
		if s.events != nil {
			s.events.WindowReset(ctx, userID)
		}
		rec.Counters = make(map[Feature]int)
		rec.ResetAt = time.Now()
	}

	st := &Status{
		Plan:    ent.Plan,
		ResetAt: rec.ResetAt,
		Usage:   make(map[Feature]FeatureUsage, len(allFeatures)),
	}
	for _, f := range allFeatures {
		st.Usage[f] = FeatureUsage{
			Used:  rec.Counter(f),
			Limit: LimitFor(ent.Plan, f),
		}
	}
	return st, nil
}

// shouldReset applies the lazy window rules: every plan resets on the rolling
// 24-hour window, and pro additionally resets when the billing period rolled
// over. Both conditions stay active for pro on purpose: daily-style pro
// limits reset every 24h regardless of the billing cycle.
func (s *Service) shouldReset(rec *Record, ent subscription.Entitlement) bool {
	if time.Since(rec.ResetAt) >= window {
		return true
	}
	if ent.Plan == subscription.PlanPro && ent.CurrentPeriodEnd != nil && time.Now().After(*ent.CurrentPeriodEnd) {
		return true
	}
	return false
}

func (s *Service) allowed(plan subscription.Plan, f Feature, current, limit int) *CheckResult {
	msg := fmt.Sprintf("%d of %d %s used today", current, limit, f)
	if limit == Unlimited {
		msg = fmt.Sprintf("Unlimited %s on your plan", f)
	}
	return &CheckResult{
		CanUse:       true,
		Message:      msg,
		CurrentUsage: current,
		Limit:        limit,
		Plan:         plan,
	}
}
