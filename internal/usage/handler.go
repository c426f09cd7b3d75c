package usage

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/creatorhub-platform/creatorhub/internal/api"
	"github.com/creatorhub-platform/creatorhub/internal/auth"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

type CheckRequest struct {
	LimitType string `json:"limit_type" validate:"required"`
}

type IncrementRequest struct {
	UsageType string `json:"usage_type" validate:"required"`
}

type IncrementResponse struct {
	Success bool `json:"success"`
}

// Check reports whether the authenticated user may perform the requested
// feature. Callers invoke this before doing the expensive work.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	feature, err := ParseFeature(req.LimitType)
	if err != nil {
		api.HandleError(w, api.NewBadRequestError(err.Error()))
		return
	}

	result, err := h.svc.Check(r.Context(), userID, feature)
	if err != nil {
		slog.Error("checking usage limit", "error", err, "feature", feature)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, result)
}

// Increment records one completed use of a feature. Callers invoke this
// after the action succeeded, so a failure here is reported but the action
// itself stands.
func (h *Handler) Increment(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req IncrementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	feature, err := ParseFeature(req.UsageType)
	if err != nil {
		api.HandleError(w, api.NewBadRequestError(err.Error()))
		return
	}

	if err := h.svc.Increment(r.Context(), userID, feature); err != nil {
		if errors.Is(err, ErrUnknownFeature) {
			api.HandleError(w, api.NewBadRequestError(err.Error()))
			return
		}
		slog.Error("recording usage", "error", err, "feature", feature, "user_id", userID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, IncrementResponse{Success: true})
}

// Status returns the authenticated user's full usage snapshot for the
// remaining-quota widgets.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	status, err := h.svc.Status(r.Context(), userID)
	if err != nil {
		slog.Error("loading usage status", "error", err, "user_id", userID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, status)
}

func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}
