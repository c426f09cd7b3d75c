package usage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorhub-platform/creatorhub/internal/auth"
	"github.com/creatorhub-platform/creatorhub/internal/subscription"
)

func newTestHandler(store Store) *Handler {
	return NewHandler(freeService(store))
}

func authedRequest(t *testing.T, method, target, body string, userID uuid.UUID) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := context.WithValue(req.Context(), auth.UserClaimsKey, &auth.AccessClaims{
		UserID: userID.String(),
		Email:  "creator@example.com",
	})
	return req.WithContext(ctx)
}

func TestHandlerCheck(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		h := newTestHandler(newMemStore())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/usage/check", strings.NewReader(`{"limit_type":"ai_captions"}`))
		rec := httptest.NewRecorder()

		h.Check(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		h := newTestHandler(newMemStore())
		rec := httptest.NewRecorder()

		h.Check(rec, authedRequest(t, http.MethodPost, "/api/v1/usage/check", `{not json`, uuid.New()))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects missing limit_type", func(t *testing.T) {
		h := newTestHandler(newMemStore())
		rec := httptest.NewRecorder()

		h.Check(rec, authedRequest(t, http.MethodPost, "/api/v1/usage/check", `{}`, uuid.New()))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects unknown usage type", func(t *testing.T) {
		h := newTestHandler(newMemStore())
		rec := httptest.NewRecorder()

		h.Check(rec, authedRequest(t, http.MethodPost, "/api/v1/usage/check", `{"limit_type":"teleportation"}`, uuid.New()))
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Contains(t, resp.Error, "invalid usage type")
	})

	t.Run("allows a fresh user", func(t *testing.T) {
		h := newTestHandler(newMemStore())
		rec := httptest.NewRecorder()

		h.Check(rec, authedRequest(t, http.MethodPost, "/api/v1/usage/check", `{"limit_type":"ai_captions"}`, uuid.New()))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data CheckResult `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.Data.CanUse)
		assert.Equal(t, 0, resp.Data.CurrentUsage)
		assert.Equal(t, 5, resp.Data.Limit)
	})

	t.Run("denies at the limit", func(t *testing.T) {
		store := newMemStore()
		h := newTestHandler(store)
		userID := uuid.New()
		store.seed(userID, map[Feature]int{FeatureAICaptions: 5}, time.Now())

		rec := httptest.NewRecorder()
		h.Check(rec, authedRequest(t, http.MethodPost, "/api/v1/usage/check", `{"limit_type":"ai_captions"}`, userID))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data CheckResult `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.False(t, resp.Data.CanUse)
		assert.Contains(t, resp.Data.Message, "Upgrade to Pro")
	})

	t.Run("accepts legacy aliases", func(t *testing.T) {
		store := newMemStore()
		h := newTestHandler(store)
		userID := uuid.New()
		store.seed(userID, map[Feature]int{FeatureAICaptions: 2}, time.Now())

		rec := httptest.NewRecorder()
		h.Check(rec, authedRequest(t, http.MethodPost, "/api/v1/usage/check", `{"limit_type":"ai_caption"}`, userID))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data CheckResult `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Data.CurrentUsage)
	})
}

func TestHandlerIncrement(t *testing.T) {
	t.Run("records one use", func(t *testing.T) {
		store := newMemStore()
		h := newTestHandler(store)
		userID := uuid.New()

		rec := httptest.NewRecorder()
		h.Increment(rec, authedRequest(t, http.MethodPost, "/api/v1/usage/increment", `{"usage_type":"ai_scripts"}`, userID))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data IncrementResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.Data.Success)
		assert.Equal(t, 1, store.record(userID).Counter(FeatureAIScripts))
	})

	t.Run("resolves aliases before writing", func(t *testing.T) {
		store := newMemStore()
		h := newTestHandler(store)
		userID := uuid.New()

		rec := httptest.NewRecorder()
		h.Increment(rec, authedRequest(t, http.MethodPost, "/api/v1/usage/increment", `{"usage_type":"ai_thumbnail"}`, userID))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, store.record(userID).Counter(FeatureAIThumbnails))
	})

	t.Run("rejects unknown usage type without writing", func(t *testing.T) {
		store := newMemStore()
		h := newTestHandler(store)
		userID := uuid.New()

		rec := httptest.NewRecorder()
		h.Increment(rec, authedRequest(t, http.MethodPost, "/api/v1/usage/increment", `{"usage_type":"minting_nfts"}`, userID))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, store.record(userID))
	})

	t.Run("requires authentication", func(t *testing.T) {
		h := newTestHandler(newMemStore())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/usage/increment", strings.NewReader(`{"usage_type":"ai_scripts"}`))
		rec := httptest.NewRecorder()

		h.Increment(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandlerStatus(t *testing.T) {
	store := newMemStore()
	h := newTestHandler(store)
	userID := uuid.New()
	store.seed(userID, map[Feature]int{FeatureVideoUploads: 2}, time.Now())

	rec := httptest.NewRecorder()
	h.Status(rec, authedRequest(t, http.MethodGet, "/api/v1/usage", "", userID))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data Status `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, subscription.PlanFree, resp.Data.Plan)
	assert.Len(t, resp.Data.Usage, 18)
	assert.Equal(t, FeatureUsage{Used: 2, Limit: 3}, resp.Data.Usage[FeatureVideoUploads])
}
