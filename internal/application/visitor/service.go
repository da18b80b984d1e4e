package visitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/visitsafe-api/internal/domain"
	"github.com/visitsafe-api/internal/pkg/id"
	"github.com/visitsafe-api/internal/pkg/metrics"
	pkgtoken "github.com/visitsafe-api/internal/pkg/token"
	"github.com/visitsafe-api/internal/pkg/validate"
	"golang.org/x/sync/errgroup"
)

// ClickActionPath is where a body click on a visitor notification lands.
const ClickActionPath = "/resident/dashboard"

type Service interface {
	Submit(ctx context.Context, req domain.SubmitVisitorRequest, baseURL string) (*SubmitResult, error)
}

// SubmitResult summarises a submission. Dispatch counts only cover push
// notifications.
type SubmitResult struct {
	RequestID  string
	Recipients int
	Delivered  int
	Failed     int
}

type requestStore interface {
	Create(ctx context.Context, v *domain.VisitorRequest) error
}

type residentStore interface {
	ListByUnit(ctx context.Context, residencyID, unitID string) ([]domain.Resident, error)
	ListLegacy(ctx context.Context, residencyID string) ([]domain.Resident, error)
}

type residencyStore interface {
	Get(ctx context.Context, residencyID string) (*domain.Residency, error)
}

type unitResolver interface {
	Resolve(ctx context.Context, residencyID, unitID string) (domain.UnitRef, error)
}

type pusher interface {
	Send(ctx context.Context, token string, msg domain.PushMessage) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type photoStore interface {
	UploadBase64(ctx context.Context, key, b64Data string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	requests    requestStore
	residents   residentStore
	residencies residencyStore
	units       unitResolver
	pusher      pusher
	sms         smsSender
	photos      photoStore
	photoURLTTL time.Duration
}

// ServiceDeps wires the submission service. SMS and Photos are optional.
type ServiceDeps struct {
	RequestRepo   requestStore
	ResidentRepo  residentStore
	ResidencyRepo residencyStore
	UnitResolver  unitResolver
	Pusher        pusher
	SMS           smsSender
	Photos        photoStore
	PhotoURLTTL   time.Duration
}

func NewService(deps ServiceDeps) Service {
	ttl := deps.PhotoURLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &service{
		requests:    deps.RequestRepo,
		residents:   deps.ResidentRepo,
		residencies: deps.ResidencyRepo,
		units:       deps.UnitResolver,
		pusher:      deps.Pusher,
		sms:         deps.SMS,
		photos:      deps.Photos,
		photoURLTTL: ttl,
	}
}

// Submit validates and persists a visitor request, then notifies every
// recipient of the target unit. Notification failures never fail the call.
func (s *service) Submit(ctx context.Context, req domain.SubmitVisitorRequest, baseURL string) (*SubmitResult, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	actionToken, err := pkgtoken.NewActionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	v := &domain.VisitorRequest{
		RequestID:     id.New(),
		ResidencyID:   req.ResidencyID,
		UnitID:        req.UnitID.String(),
		VisitorName:   req.VisitorName,
		VisitorPhone:  req.VisitorPhone,
		Purpose:       req.Purpose,
		VehicleNumber: req.VehicleNumber,
		Status:        domain.StatusPending,
		ActionToken:   actionToken,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	ref, err := s.units.Resolve(ctx, v.ResidencyID, v.UnitID)
	if err != nil {
		slog.Warn("legacy unit lookup failed", "residency_id", v.ResidencyID, "unit_id", v.UnitID, "err", err)
	}
	v.UnitNumber, v.BlockName = ref.Number, ref.BlockName

	if req.VisitorPhoto != "" && s.photos != nil {
		key := photoKey(v.ResidencyID, v.RequestID)
		if err := s.photos.UploadBase64(ctx, key, req.VisitorPhoto); err != nil {
			slog.Warn("visitor photo upload failed", "request_id", v.RequestID, "err", err)
		} else {
			v.PhotoKey = key
		}
	}

	if err := s.requests.Create(ctx, v); err != nil {
		if v.PhotoKey != "" {
			if derr := s.photos.Delete(context.WithoutCancel(ctx), v.PhotoKey); derr != nil {
				slog.Warn("orphaned visitor photo", "key", v.PhotoKey, "err", derr)
			}
		}
		return nil, err
	}
	slog.Info("visitor request created", "request_id", v.RequestID, "residency_id", v.ResidencyID, "unit_id", v.UnitID)

	rs := s.resolveRecipients(ctx, v, ref)
	res := &SubmitResult{RequestID: v.RequestID, Recipients: len(rs.push)}
	res.Delivered, res.Failed = s.dispatch(ctx, v, rs, baseURL)
	return res, nil
}

// dispatch notifies all recipients concurrently and waits for every delivery
// to settle. It runs detached from the caller's cancellation.
func (s *service) dispatch(ctx context.Context, v *domain.VisitorRequest, rs recipientSet, baseURL string) (delivered, failed int) {
	if len(rs.push) == 0 && len(rs.sms) == 0 {
		slog.Info("no recipients for visitor request", "request_id", v.RequestID)
		return 0, 0
	}
	ctx = context.WithoutCancel(ctx)

	imageURL := ""
	if v.PhotoKey != "" {
		u, err := s.photos.PresignedURL(ctx, v.PhotoKey, s.photoURLTTL)
		if err != nil {
			slog.Warn("presign visitor photo failed", "request_id", v.RequestID, "err", err)
		}
		imageURL = u
	}

	var ok, ko atomic.Int64
	var g errgroup.Group
	for _, rcpt := range rs.push {
		g.Go(func() error {
			msg := buildMessage(v, rcpt, baseURL, imageURL)
			err := s.pusher.Send(ctx, rcpt.DeviceToken, msg)
			metrics.ObserveDispatch(metrics.KindVisitorRequest, err)
			if err != nil {
				ko.Add(1)
				slog.Warn("visitor push failed", "request_id", v.RequestID, "resident_id", rcpt.ResidentID, "err", err)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	if s.sms != nil {
		for _, res := range rs.sms {
			g.Go(func() error {
				err := s.sms.SendSMS(ctx, *res.Phone, buildSMS(v, res.ResidentID, baseURL))
				metrics.ObserveDispatch(metrics.KindSMS, err)
				if err != nil {
					slog.Warn("visitor sms failed", "request_id", v.RequestID, "resident_id", res.ResidentID, "err", err)
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	slog.Info("visitor request dispatched", "request_id", v.RequestID,
		"recipients", len(rs.push), "delivered", ok.Load(), "failed", ko.Load())
	return int(ok.Load()), int(ko.Load())
}

func photoKey(residencyID, requestID string) string {
	return fmt.Sprintf("visitor-requests/%s/%s", residencyID, requestID)
}
