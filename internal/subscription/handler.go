package subscription

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/creatorhub-platform/creatorhub/internal/api"
	"github.com/creatorhub-platform/creatorhub/internal/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Get returns the authenticated user's subscription. Users without a row are
// reported as free so the UI never needs a special case.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	sub, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		slog.Error("loading subscription", "error", err, "user_id", userID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if sub == nil {
		sub = &Subscription{UserID: userID, Plan: PlanFree, Status: StatusActive}
	}

	api.JSON(w, http.StatusOK, sub)
}
