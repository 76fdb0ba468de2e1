package allocation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperstill/stillhouse-backend/internal/lots"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
)

// LotAllocation is one take against one lot.
type LotAllocation struct {
	LotID    uuid.UUID       `json:"lot_id"`
	LotCode  string          `json:"lot_code"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Supplier *string         `json:"supplier,omitempty"`
}

// Result reports what allocating one item's requirement achieved. Shortage is
// whatever the open lots could not cover; a partial result is not an error.
type Result struct {
	ItemID      uuid.UUID       `json:"item_id"`
	Requested   decimal.Decimal `json:"requested"`
	Allocated   decimal.Decimal `json:"allocated"`
	Shortage    decimal.Decimal `json:"shortage"`
	Allocations []LotAllocation `json:"allocations"`
}

// Allocate drains the item's open lots oldest-first until the requirement is
// covered or the lots run out. Each take is a conditional decrement: a lot
// that moved between the read and the write is skipped rather than driven
// negative, and the unmet remainder surfaces as Shortage.
//
// Callers that need all-or-nothing semantics run this inside a transaction
// and roll back on Shortage.
func Allocate(ctx context.Context, lotRepo lots.Repository, orgID, itemID uuid.UUID, required decimal.Decimal) (*Result, error) {
	if orgID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization and item ids are required")
	}
	if !required.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "required quantity must be positive")
	}

	open, err := lotRepo.OpenLotsFIFO(ctx, orgID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open lots")
	}

	result := &Result{
		ItemID:    itemID,
		Requested: required,
		Allocated: decimal.Zero,
	}

	remaining := required
	for _, lot := range open {
		if !remaining.IsPositive() {
			break
		}

		take := decimal.Min(remaining, lot.RemainingQty)
		ok, err := lotRepo.DecrementRemaining(ctx, orgID, lot.ID, take)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement lot")
		}
		if !ok {
			continue
		}

		result.Allocations = append(result.Allocations, LotAllocation{
			LotID:    lot.ID,
			LotCode:  lot.Code,
			Quantity: take,
			UnitCost: lot.UnitCost,
			Supplier: lot.Supplier,
		})
		result.Allocated = result.Allocated.Add(take)
		remaining = remaining.Sub(take)
	}

	result.Shortage = remaining
	return result, nil
}
