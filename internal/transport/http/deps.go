package http

import (
	"context"
	"time"

	"github.com/visitsafe-api/internal/domain"
)

// VisitorRequestRepository is the minimal interface the router requires from a visitor request store.
type VisitorRequestRepository interface {
	Create(ctx context.Context, v *domain.VisitorRequest) error
	Get(ctx context.Context, residencyID, requestID string) (*domain.VisitorRequest, error)
	Resolve(ctx context.Context, residencyID, requestID string, t domain.Transition) error
}

// ResidentRepository is the minimal interface the router requires from a resident store.
type ResidentRepository interface {
	Get(ctx context.Context, residencyID, residentID string) (*domain.Resident, error)
	ListByUnit(ctx context.Context, residencyID, unitID string) ([]domain.Resident, error)
	ListLegacy(ctx context.Context, residencyID string) ([]domain.Resident, error)
	ListWithDeviceToken(ctx context.Context, residencyID string) ([]domain.Resident, error)
	SetDeviceToken(ctx context.Context, residencyID, residentID, token string) error
	RemoveDeviceTokens(ctx context.Context, residencyID string, residentIDs []string) error
}

// ResidencyRepository is the minimal interface the router requires from a residency store.
type ResidencyRepository interface {
	Get(ctx context.Context, residencyID string) (*domain.Residency, error)
	SetAdminDeviceToken(ctx context.Context, residencyID, token string) error
}

// UnitRepository is the minimal interface the router requires from a unit store.
type UnitRepository interface {
	Get(ctx context.Context, residencyID, unitID string) (*domain.Unit, error)
}

// BlockRepository is the minimal interface the router requires from a block store.
type BlockRepository interface {
	Get(ctx context.Context, residencyID, blockID string) (*domain.Block, error)
}

// PushSender delivers push notifications to device tokens.
type PushSender interface {
	Configured() bool
	Send(ctx context.Context, token string, msg domain.PushMessage) error
	SendMulticast(ctx context.Context, tokens []string, msg domain.PushMessage) []domain.PushResult
}

// SMSSender delivers text messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// PhotoStore is the minimal interface the router requires from an object storage backend.
type PhotoStore interface {
	UploadBase64(ctx context.Context, key, b64Data string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}
