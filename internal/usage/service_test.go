package usage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorhub-platform/creatorhub/internal/subscription"
)

// memStore is an in-memory Store for exercising the quota logic without
// PostgreSQL.
type memStore struct {
	mu   sync.Mutex
	recs map[uuid.UUID]*Record
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[uuid.UUID]*Record)}
}

func (m *memStore) GetOrCreate(_ context.Context, userID uuid.UUID) (*Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.recs[userID]; ok {
		return cloneRecord(rec), false, nil
	}
	now := time.Now()
	rec := &Record{UserID: userID, Counters: make(map[Feature]int), ResetAt: now, UpdatedAt: now}
	m.recs[userID] = rec
	return cloneRecord(rec), true, nil
}

func (m *memStore) Reset(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[userID]
	if !ok {
		return fmt.Errorf("no usage record for %s", userID)
	}
	rec.Counters = make(map[Feature]int)
	rec.ResetAt = time.Now()
	rec.UpdatedAt = rec.ResetAt
	return nil
}

func (m *memStore) Increment(_ context.Context, userID uuid.UUID, f Feature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[userID]
	if !ok {
		return fmt.Errorf("no usage record for %s", userID)
	}
	rec.Counters[f]++
	rec.UpdatedAt = time.Now()
	return nil
}

// seed installs a record with the given counters and window start.
func (m *memStore) seed(userID uuid.UUID, counters map[Feature]int, resetAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := make(map[Feature]int, len(counters))
	for k, v := range counters {
		c[k] = v
	}
	m.recs[userID] = &Record{UserID: userID, Counters: c, ResetAt: resetAt, UpdatedAt: resetAt}
}

func (m *memStore) record(userID uuid.UUID) *Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRecord(m.recs[userID])
}

func cloneRecord(rec *Record) *Record {
	if rec == nil {
		return nil
	}
	c := make(map[Feature]int, len(rec.Counters))
	for k, v := range rec.Counters {
		c[k] = v
	}
	out := *rec
	out.Counters = c
	return &out
}

type stubPlans struct {
	ent subscription.Entitlement
	err error
}

func (s stubPlans) Entitlement(context.Context, uuid.UUID) (subscription.Entitlement, error) {
	return s.ent, s.err
}

type recordedEvents struct {
	incremented []Feature
	limits      []Feature
	resets      int
}

func (e *recordedEvents) UsageIncremented(_ context.Context, _ uuid.UUID, f Feature) {
	e.incremented = append(e.incremented, f)
}

func (e *recordedEvents) LimitReached(_ context.Context, _ uuid.UUID, f Feature, _ int) {
	e.limits = append(e.limits, f)
}

func (e *recordedEvents) WindowReset(context.Context, uuid.UUID) {
	e.resets++
}

func freeService(store Store) *Service {
	return NewService(store, stubPlans{ent: subscription.Entitlement{Plan: subscription.PlanFree}}, nil)
}

func proService(store Store, periodEnd *time.Time) *Service {
	return NewService(store, stubPlans{ent: subscription.Entitlement{Plan: subscription.PlanPro, CurrentPeriodEnd: periodEnd}}, nil)
}

func TestCheck_FirstTouchAlwaysAllowed(t *testing.T) {
	store := newMemStore()
	svc := freeService(store)
	userID := uuid.New()

	res, err := svc.Check(context.Background(), userID, FeatureAIScripts)
	require.NoError(t, err)
	assert.True(t, res.CanUse)
	assert.Equal(t, 0, res.CurrentUsage)
	assert.Equal(t, 3, res.Limit)
	assert.Equal(t, subscription.PlanFree, res.Plan)

	// The record was persisted with every counter at zero.
	rec := store.record(userID)
	require.NotNil(t, rec)
	for _, f := range Features() {
		assert.Equal(t, 0, rec.Counter(f))
	}
}

func TestCheck_UnderAndAtLimit(t *testing.T) {
	store := newMemStore()
	svc := freeService(store)
	userID := uuid.New()

	// Free ai_thumbnails limit is 4; at usage 3 the action is still allowed.
	store.seed(userID, map[Feature]int{FeatureAIThumbnails: 3}, time.Now())

	res, err := svc.Check(context.Background(), userID, FeatureAIThumbnails)
	require.NoError(t, err)
	assert.True(t, res.CanUse)
	assert.Equal(t, 3, res.CurrentUsage)
	assert.Equal(t, 4, res.Limit)

	require.NoError(t, svc.Increment(context.Background(), userID, FeatureAIThumbnails))

	res, err = svc.Check(context.Background(), userID, FeatureAIThumbnails)
	require.NoError(t, err)
	assert.False(t, res.CanUse)
	assert.Equal(t, 4, res.CurrentUsage)
	assert.Contains(t, res.Message, "Upgrade to Pro")
}

func TestCheck_UnlimitedNeverDenied(t *testing.T) {
	store := newMemStore()
	svc := proService(store, nil)
	userID := uuid.New()

	store.seed(userID, map[Feature]int{FeatureVideoUploads: 1_000_000}, time.Now())

	res, err := svc.Check(context.Background(), userID, FeatureVideoUploads)
	require.NoError(t, err)
	assert.True(t, res.CanUse)
	assert.Equal(t, Unlimited, res.Limit)
	assert.Contains(t, res.Message, "Unlimited")
}

func TestCheck_ProDenialMentionsTomorrowNotUpgrade(t *testing.T) {
	store := newMemStore()
	svc := proService(store, nil)
	userID := uuid.New()

	store.seed(userID, map[Feature]int{FeatureAIMusic: 200}, time.Now())

	res, err := svc.Check(context.Background(), userID, FeatureAIMusic)
	require.NoError(t, err)
	assert.False(t, res.CanUse)
	assert.Equal(t, 200, res.CurrentUsage)
	assert.Equal(t, 200, res.Limit)
	assert.Contains(t, res.Message, "resets tomorrow")
	assert.NotContains(t, res.Message, "Upgrade")
}

func TestCheck_IsIdempotentWithinWindow(t *testing.T) {
	store := newMemStore()
	svc := freeService(store)
	userID := uuid.New()

	store.seed(userID, map[Feature]int{FeatureAICaptions: 2}, time.Now())

	first, err := svc.Check(context.Background(), userID, FeatureAICaptions)
	require.NoError(t, err)
	second, err := svc.Check(context.Background(), userID, FeatureAICaptions)
	require.NoError(t, err)

	assert.Equal(t, first.CurrentUsage, second.CurrentUsage)
	assert.Equal(t, first.CanUse, second.CanUse)
}

func TestIncrement_OnlyTouchesOneCounter(t *testing.T) {
	store := newMemStore()
	svc := freeService(store)
	userID := uuid.New()

	store.seed(userID, map[Feature]int{
		FeatureAICaptions: 2,
		FeatureAIMusic:    1,
	}, time.Now())

	require.NoError(t, svc.Increment(context.Background(), userID, FeatureAICaptions))

	rec := store.record(userID)
	assert.Equal(t, 3, rec.Counter(FeatureAICaptions))
	assert.Equal(t, 1, rec.Counter(FeatureAIMusic))
	assert.Equal(t, 0, rec.Counter(FeatureVideoUploads))
}

func TestCheck_StaleWindowResetsAllCounters(t *testing.T) {
	store := newMemStore()
	svc := freeService(store)
	userID := uuid.New()

	staleReset := time.Now().Add(-30 * time.Hour)
	store.seed(userID, map[Feature]int{
		FeatureVideoUploads: 3, // at the free limit
		FeatureAICaptions:   5,
	}, staleReset)

	res, err := svc.Check(context.Background(), userID, FeatureVideoUploads)
	require.NoError(t, err)
	assert.True(t, res.CanUse)
	assert.Equal(t, 0, res.CurrentUsage)

	rec := store.record(userID)
	assert.Equal(t, 0, rec.Counter(FeatureVideoUploads))
	assert.Equal(t, 0, rec.Counter(FeatureAICaptions))
	assert.True(t, rec.ResetAt.After(staleReset))
}

func TestIncrement_StaleWindowResetsBeforeCounting(t *testing.T) {
	store := newMemStore()
	svc := freeService(store)
	userID := uuid.New()

	store.seed(userID, map[Feature]int{
		FeatureAISEO:    5,
		FeatureAITrends: 4,
	}, time.Now().Add(-25*time.Hour))

	require.NoError(t, svc.Increment(context.Background(), userID, FeatureAISEO))

	rec := store.record(userID)
	assert.Equal(t, 1, rec.Counter(FeatureAISEO))
	assert.Equal(t, 0, rec.Counter(FeatureAITrends))
}

func TestCheck_ProResetsOnBillingPeriodEnd(t *testing.T) {
	store := newMemStore()
	pastPeriodEnd := time.Now().Add(-time.Hour)
	svc := proService(store, &pastPeriodEnd)
	userID := uuid.New()

	// Window started only an hour ago, so the 24h rule alone would not fire.
	store.seed(userID, map[Feature]int{FeatureAIMusic: 200}, time.Now().Add(-time.Hour))

	res, err := svc.Check(context.Background(), userID, FeatureAIMusic)
	require.NoError(t, err)
	assert.True(t, res.CanUse)
	assert.Equal(t, 0, res.CurrentUsage)
}

func TestCheck_ProStillResetsDailyWithinBillingPeriod(t *testing.T) {
	store := newMemStore()
	futurePeriodEnd := time.Now().Add(20 * 24 * time.Hour)
	svc := proService(store, &futurePeriodEnd)
	userID := uuid.New()

	// The billing period is far from over, but the rolling 24h window is.
	store.seed(userID, map[Feature]int{FeatureAIMusic: 200}, time.Now().Add(-25*time.Hour))

	res, err := svc.Check(context.Background(), userID, FeatureAIMusic)
	require.NoError(t, err)
	assert.True(t, res.CanUse)
	assert.Equal(t, 0, res.CurrentUsage)
}

func TestCheck_FreePlanIgnoresBillingPeriod(t *testing.T) {
	store := newMemStore()
	pastPeriodEnd := time.Now().Add(-time.Hour)
	svc := NewService(store, stubPlans{ent: subscription.Entitlement{
		Plan:             subscription.PlanFree,
		CurrentPeriodEnd: &pastPeriodEnd,
	}}, nil)
	userID := uuid.New()

	store.seed(userID, map[Feature]int{FeatureAIThumbnails: 2}, time.Now().Add(-time.Hour))

	res, err := svc.Check(context.Background(), userID, FeatureAIThumbnails)
	require.NoError(t, err)
	assert.True(t, res.CanUse)
	assert.Equal(t, 2, res.CurrentUsage, "free plan must not reset on billing boundaries")
}

func TestCheckAndIncrement_RejectUnknownFeature(t *testing.T) {
	store := newMemStore()
	svc := freeService(store)
	userID := uuid.New()

	_, err := svc.Check(context.Background(), userID, Feature("not_a_real_feature"))
	require.ErrorIs(t, err, ErrUnknownFeature)

	err = svc.Increment(context.Background(), userID, Feature("not_a_real_feature"))
	require.ErrorIs(t, err, ErrUnknownFeature)

	// Neither call may create or mutate a record.
	assert.Nil(t, store.record(userID))
}

func TestService_PlanLookupErrorPropagates(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, stubPlans{err: fmt.Errorf("subscription store down")}, nil)

	_, err := svc.Check(context.Background(), uuid.New(), FeatureAICaptions)
	require.Error(t, err)

	err = svc.Increment(context.Background(), uuid.New(), FeatureAICaptions)
	require.Error(t, err)
}

func TestService_PublishesEvents(t *testing.T) {
	store := newMemStore()
	events := &recordedEvents{}
	svc := NewService(store, stubPlans{ent: subscription.Entitlement{Plan: subscription.PlanFree}}, events)
	userID := uuid.New()

	store.seed(userID, map[Feature]int{FeatureAIVoiceCloning: 1}, time.Now())

	// Denied check publishes a limit-reached event (free limit is 1).
	res, err := svc.Check(context.Background(), userID, FeatureAIVoiceCloning)
	require.NoError(t, err)
	require.False(t, res.CanUse)
	assert.Equal(t, []Feature{FeatureAIVoiceCloning}, events.limits)

	require.NoError(t, svc.Increment(context.Background(), userID, FeatureAIDubbing))
	assert.Equal(t, []Feature{FeatureAIDubbing}, events.incremented)

	// A stale window publishes a reset event.
	store.seed(userID, map[Feature]int{FeatureAIDubbing: 1}, time.Now().Add(-25*time.Hour))
	_, err = svc.Check(context.Background(), userID, FeatureAIDubbing)
	require.NoError(t, err)
	assert.Equal(t, 1, events.resets)
}

func TestStatus_ReportsEveryFeature(t *testing.T) {
	store := newMemStore()
	svc := freeService(store)
	userID := uuid.New()

	store.seed(userID, map[Feature]int{FeatureAIHashtags: 7}, time.Now())

	st, err := svc.Status(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, subscription.PlanFree, st.Plan)
	assert.Len(t, st.Usage, len(Features()))
	assert.Equal(t, FeatureUsage{Used: 7, Limit: 10}, st.Usage[FeatureAIHashtags])
	assert.Equal(t, FeatureUsage{Used: 0, Limit: 3}, st.Usage[FeatureVideoUploads])
}

func TestStatus_AppliesLazyReset(t *testing.T) {
	store := newMemStore()
	svc := freeService(store)
	userID := uuid.New()

	store.seed(userID, map[Feature]int{FeatureAIHashtags: 7}, time.Now().Add(-36*time.Hour))

	st, err := svc.Status(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Usage[FeatureAIHashtags].Used)
	assert.WithinDuration(t, time.Now(), st.ResetAt, time.Minute)
}
