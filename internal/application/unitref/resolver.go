// Package unitref resolves unit identifiers into the legacy (number, block)
// addressing scheme and decides whether a resident lives in a given unit.
package unitref

import (
	"context"
	"errors"
	"fmt"

	"github.com/visitsafe-api/internal/domain"
)

type unitStore interface {
	Get(ctx context.Context, residencyID, unitID string) (*domain.Unit, error)
}

type blockStore interface {
	Get(ctx context.Context, residencyID, blockID string) (*domain.Block, error)
}

// Resolver looks units and blocks up in the reference tables.
type Resolver struct {
	units  unitStore
	blocks blockStore
}

func NewResolver(units unitStore, blocks blockStore) *Resolver {
	return &Resolver{units: units, blocks: blocks}
}

// Resolve returns the legacy reference of unitID. A unit absent from the
// reference tables yields a zero reference and no error; a missing block
// yields a reference without a block name, which never matches.
func (r *Resolver) Resolve(ctx context.Context, residencyID, unitID string) (domain.UnitRef, error) {
	if unitID == "" {
		return domain.UnitRef{}, nil
	}
	u, err := r.units.Get(ctx, residencyID, unitID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.UnitRef{}, nil
	}
	if err != nil {
		return domain.UnitRef{}, fmt.Errorf("lookup unit %s: %w", unitID, err)
	}
	ref := domain.UnitRef{Number: u.Number}
	if u.BlockID == "" {
		return ref, nil
	}
	b, err := r.blocks.Get(ctx, residencyID, u.BlockID)
	if errors.Is(err, domain.ErrNotFound) {
		return ref, nil
	}
	if err != nil {
		return domain.UnitRef{}, fmt.Errorf("lookup block %s: %w", u.BlockID, err)
	}
	ref.BlockName = b.Name
	return ref, nil
}

// ResidentInUnit reports whether res lives in the unit identified by unitID,
// either directly or through its legacy reference.
func ResidentInUnit(res *domain.Resident, unitID string, ref domain.UnitRef) bool {
	if res.UnitID != "" && res.UnitID == unitID {
		return true
	}
	return ref.Matches(res.UnitRef())
}
