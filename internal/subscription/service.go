package subscription

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Entitlement resolves the user's effective plan. Users without a
// subscription row, or with a non-active one, are treated as free.
func (s *Service) Entitlement(ctx context.Context, userID uuid.UUID) (Entitlement, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return Entitlement{}, err
	}
	if sub == nil || sub.Status != StatusActive {
		return Entitlement{Plan: PlanFree}, nil
	}
	return Entitlement{Plan: sub.Plan, CurrentPeriodEnd: sub.CurrentPeriodEnd}, nil
}

// Get returns the raw subscription row, or nil if the user has none.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	return s.repo.GetByUserID(ctx, userID)
}
