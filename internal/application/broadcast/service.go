package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/visitsafe-api/internal/domain"
	"github.com/visitsafe-api/internal/pkg/metrics"
	"github.com/visitsafe-api/internal/pkg/validate"
)

const noDevicesMessage = "No residents with registered devices"

type Service interface {
	Send(ctx context.Context, req domain.BroadcastRequest) (*domain.BroadcastResult, error)
}

type residentStore interface {
	ListWithDeviceToken(ctx context.Context, residencyID string) ([]domain.Resident, error)
	RemoveDeviceTokens(ctx context.Context, residencyID string, residentIDs []string) error
}

type multicaster interface {
	Configured() bool
	SendMulticast(ctx context.Context, tokens []string, msg domain.PushMessage) []domain.PushResult
}

type service struct {
	residents residentStore
	pusher    multicaster
	now       func() time.Time
}

type ServiceDeps struct {
	ResidentRepo residentStore
	Pusher       multicaster
}

func NewService(deps ServiceDeps) Service {
	return &service{
		residents: deps.ResidentRepo,
		pusher:    deps.Pusher,
		now:       time.Now,
	}
}

// Send delivers one announcement to every resident holding a device token and
// evicts the tokens the push transport permanently rejected.
func (s *service) Send(ctx context.Context, req domain.BroadcastRequest) (*domain.BroadcastResult, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if s.pusher == nil || !s.pusher.Configured() {
		return nil, fmt.Errorf("push transport not configured: %w", domain.ErrUnavailable)
	}
	residents, err := s.residents.ListWithDeviceToken(ctx, req.ResidencyID)
	if err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}

	// Several residents may share a device; deliver once per token.
	owners := make(map[string][]string, len(residents))
	tokens := make([]string, 0, len(residents))
	for _, r := range residents {
		if !r.HasDevice() {
			continue
		}
		tok := *r.DeviceToken
		if _, ok := owners[tok]; !ok {
			tokens = append(tokens, tok)
		}
		owners[tok] = append(owners[tok], r.ResidentID)
	}
	if len(tokens) == 0 {
		return &domain.BroadcastResult{Success: true, Message: noDevicesMessage}, nil
	}

	msg := domain.PushMessage{
		Title: req.Title,
		Body:  req.Body,
		Data: map[string]string{
			domain.DataType:        domain.NotificationTypeBroadcast,
			domain.DataClickAction: "/",
			domain.DataTimestamp:   strconv.FormatInt(s.now().UnixMilli(), 10),
		},
	}
	results := s.pusher.SendMulticast(ctx, tokens, msg)

	res := &domain.BroadcastResult{Success: true}
	var stale []string
	for _, r := range results {
		metrics.ObserveDispatch(metrics.KindBroadcast, r.Err)
		if r.Success() {
			res.SentCount++
			continue
		}
		res.FailureCount++
		if r.Stale() {
			stale = append(stale, owners[r.Token]...)
		} else {
			slog.Warn("broadcast delivery failed", "residency_id", req.ResidencyID, "err", r.Err)
		}
	}

	if len(stale) > 0 {
		if err := s.residents.RemoveDeviceTokens(ctx, req.ResidencyID, stale); err != nil {
			slog.Error("evict device tokens failed", "residency_id", req.ResidencyID, "count", len(stale), "err", err)
		} else {
			metrics.EvictedTokens.Add(float64(len(stale)))
			slog.Info("evicted device tokens", "residency_id", req.ResidencyID, "count", len(stale))
		}
	}
	slog.Info("broadcast sent", "residency_id", req.ResidencyID, "sent", res.SentCount, "failed", res.FailureCount)
	return res, nil
}
