package resident

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/visitsafe-api/internal/domain"
)

// maxDeviceTokenLen bounds stored push tokens; FCM tokens are well below it.
const maxDeviceTokenLen = 4096

type Service interface {
	SetDeviceToken(ctx context.Context, residencyID, residentID, token string) error
	ClearDeviceToken(ctx context.Context, residencyID, residentID string) error
	SetAdminDeviceToken(ctx context.Context, residencyID, token string) error
}

type residentStore interface {
	Get(ctx context.Context, residencyID, residentID string) (*domain.Resident, error)
	SetDeviceToken(ctx context.Context, residencyID, residentID, token string) error
	RemoveDeviceTokens(ctx context.Context, residencyID string, residentIDs []string) error
}

type residencyStore interface {
	SetAdminDeviceToken(ctx context.Context, residencyID, token string) error
}

type service struct {
	residents   residentStore
	residencies residencyStore
}

type ServiceDeps struct {
	ResidentRepo  residentStore
	ResidencyRepo residencyStore
}

func NewService(deps ServiceDeps) Service {
	return &service{residents: deps.ResidentRepo, residencies: deps.ResidencyRepo}
}

func (s *service) SetDeviceToken(ctx context.Context, residencyID, residentID, token string) error {
	token, err := cleanToken(token)
	if err != nil {
		return err
	}
	if err := s.residents.SetDeviceToken(ctx, residencyID, residentID, token); err != nil {
		return err
	}
	slog.Info("device token registered", "residency_id", residencyID, "resident_id", residentID)
	return nil
}

func (s *service) ClearDeviceToken(ctx context.Context, residencyID, residentID string) error {
	// Removing from an unknown resident would create an empty item.
	if _, err := s.residents.Get(ctx, residencyID, residentID); err != nil {
		return err
	}
	return s.residents.RemoveDeviceTokens(ctx, residencyID, []string{residentID})
}

func (s *service) SetAdminDeviceToken(ctx context.Context, residencyID, token string) error {
	token, err := cleanToken(token)
	if err != nil {
		return err
	}
	return s.residencies.SetAdminDeviceToken(ctx, residencyID, token)
}

func cleanToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("device token is required: %w", domain.ErrBadRequest)
	}
	if len(token) > maxDeviceTokenLen {
		return "", fmt.Errorf("device token too long: %w", domain.ErrBadRequest)
	}
	return token, nil
}
