package visitor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/visitsafe-api/internal/application/unitref"
	"github.com/visitsafe-api/internal/domain"
)

type recipientSet struct {
	push []domain.Recipient
	// sms holds matched residents with a phone number but no device token.
	sms []domain.Resident
}

// resolveRecipients collects residents of the request's unit (by unit id and
// by legacy reference) plus the residency admin device. Lookup failures are
// logged and shrink the set; they never fail the submission.
func (s *service) resolveRecipients(ctx context.Context, v *domain.VisitorRequest, ref domain.UnitRef) recipientSet {
	var matched []domain.Resident

	direct, err := s.residents.ListByUnit(ctx, v.ResidencyID, v.UnitID)
	if err != nil {
		slog.Warn("resident lookup by unit failed", "residency_id", v.ResidencyID, "unit_id", v.UnitID, "err", err)
	}
	matched = append(matched, direct...)

	if !ref.IsZero() {
		legacy, err := s.residents.ListLegacy(ctx, v.ResidencyID)
		if err != nil {
			slog.Warn("legacy resident lookup failed", "residency_id", v.ResidencyID, "err", err)
		}
		for i := range legacy {
			if unitref.ResidentInUnit(&legacy[i], v.UnitID, ref) {
				matched = append(matched, legacy[i])
			}
		}
	}

	var set recipientSet
	seenResident := make(map[string]struct{}, len(matched))
	seenToken := make(map[string]struct{}, len(matched)+1)
	add := func(r domain.Recipient) {
		if _, ok := seenToken[r.DeviceToken]; ok {
			return
		}
		seenToken[r.DeviceToken] = struct{}{}
		set.push = append(set.push, r)
	}

	for _, res := range matched {
		if _, ok := seenResident[res.ResidentID]; ok {
			continue
		}
		seenResident[res.ResidentID] = struct{}{}
		switch {
		case res.HasDevice():
			add(domain.Recipient{DeviceToken: *res.DeviceToken, ResidentID: res.ResidentID})
		case res.Phone != nil && *res.Phone != "":
			set.sms = append(set.sms, res)
		}
	}

	residency, err := s.residencies.Get(ctx, v.ResidencyID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		slog.Warn("admin device lookup failed", "residency_id", v.ResidencyID, "err", err)
	case residency.AdminDeviceToken != nil && *residency.AdminDeviceToken != "":
		add(domain.Recipient{DeviceToken: *residency.AdminDeviceToken, ResidentID: domain.AdminRecipientID})
	}
	return set
}
