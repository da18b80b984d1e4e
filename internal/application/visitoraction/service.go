// Package visitoraction is the single authority that moves a visitor request
// out of pending.
package visitoraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/visitsafe-api/internal/application/unitref"
	"github.com/visitsafe-api/internal/domain"
	"github.com/visitsafe-api/internal/pkg/metrics"
	pkgtoken "github.com/visitsafe-api/internal/pkg/token"
)

const alreadyProcessedMessage = "Request already processed"

type Service interface {
	Act(ctx context.Context, req domain.ActionRequest) (*domain.ActionResult, error)
}

type requestStore interface {
	Get(ctx context.Context, residencyID, requestID string) (*domain.VisitorRequest, error)
	Resolve(ctx context.Context, residencyID, requestID string, t domain.Transition) error
}

type residentStore interface {
	Get(ctx context.Context, residencyID, residentID string) (*domain.Resident, error)
}

type unitResolver interface {
	Resolve(ctx context.Context, residencyID, unitID string) (domain.UnitRef, error)
}

type service struct {
	requests  requestStore
	residents residentStore
	units     unitResolver
	now       func() time.Time
}

type ServiceDeps struct {
	RequestRepo  requestStore
	ResidentRepo residentStore
	UnitResolver unitResolver
}

func NewService(deps ServiceDeps) Service {
	return &service{
		requests:  deps.RequestRepo,
		residents: deps.ResidentRepo,
		units:     deps.UnitResolver,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Act applies an approve or reject decision. A request that is no longer
// pending is reported as already processed with its stored status, whatever
// the caller asked for.
func (s *service) Act(ctx context.Context, req domain.ActionRequest) (res *domain.ActionResult, err error) {
	defer func() { observe(res, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	v, err := s.requests.Get(ctx, req.ResidencyID, req.RequestID)
	if err != nil {
		return nil, err
	}
	if v.Status != domain.StatusPending {
		return alreadyProcessed(v, req), nil
	}
	if err := s.authorize(ctx, v, req); err != nil {
		slog.Warn("visitor action denied", "request_id", v.RequestID, "resident_id", req.ResidentID, "err", err)
		return nil, err
	}

	t := domain.Transition{Status: req.Action.ResultingStatus(), ActionBy: req.Actor(), At: s.now()}
	if err := s.requests.Resolve(ctx, v.ResidencyID, v.RequestID, t); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		// Lost the race: report whatever the winner stored.
		cur, gerr := s.requests.Get(ctx, v.ResidencyID, v.RequestID)
		if gerr != nil || cur.Status == domain.StatusPending {
			return nil, err
		}
		return alreadyProcessed(cur, req), nil
	}

	slog.Info("visitor request resolved", "request_id", v.RequestID, "status", t.Status, "action_by", t.ActionBy)
	return &domain.ActionResult{Success: true, Status: t.Status, InputAction: req.Action}, nil
}

// authorize fails closed: any lookup error denies the action.
func (s *service) authorize(ctx context.Context, v *domain.VisitorRequest, req domain.ActionRequest) error {
	if v.ActionToken != "" && !pkgtoken.Equal(v.ActionToken, req.Token) {
		return fmt.Errorf("invalid action token: %w", domain.ErrForbidden)
	}
	if req.ResidentID == "" || req.ResidentID == domain.AdminRecipientID {
		return nil
	}

	res, err := s.residents.Get(ctx, v.ResidencyID, req.ResidentID)
	if err != nil {
		return fmt.Errorf("resident %s not resolvable (%v): %w", req.ResidentID, err, domain.ErrForbidden)
	}
	if res.UnitID != "" && res.UnitID == v.UnitID {
		return nil
	}

	ref := v.UnitRef()
	if ref.IsZero() {
		ref, err = s.units.Resolve(ctx, v.ResidencyID, v.UnitID)
		if err != nil {
			return fmt.Errorf("unit %s not resolvable (%v): %w", v.UnitID, err, domain.ErrForbidden)
		}
	}
	if !unitref.ResidentInUnit(res, v.UnitID, ref) {
		return fmt.Errorf("resident %s does not belong to unit %s: %w", req.ResidentID, v.UnitID, domain.ErrForbidden)
	}
	return nil
}

func alreadyProcessed(v *domain.VisitorRequest, req domain.ActionRequest) *domain.ActionResult {
	return &domain.ActionResult{
		Success:          true,
		Status:           v.Status,
		InputAction:      req.Action,
		AlreadyProcessed: true,
		Message:          alreadyProcessedMessage,
	}
}

func observe(res *domain.ActionResult, err error) {
	outcome := metrics.ActionError
	switch {
	case err == nil && res.AlreadyProcessed:
		outcome = metrics.ActionAlreadyProcessed
	case err == nil && res.Status == domain.StatusApproved:
		outcome = metrics.ActionApproved
	case err == nil:
		outcome = metrics.ActionRejected
	case errors.Is(err, domain.ErrBadRequest):
		outcome = metrics.ActionInvalid
	case errors.Is(err, domain.ErrNotFound):
		outcome = metrics.ActionNotFound
	case errors.Is(err, domain.ErrForbidden):
		outcome = metrics.ActionForbidden
	}
	metrics.VisitorActions.WithLabelValues(outcome).Inc()
}
