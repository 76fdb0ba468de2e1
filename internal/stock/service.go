package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperstill/stillhouse-backend/internal/items"
	"github.com/copperstill/stillhouse-backend/internal/ledger"
	"github.com/copperstill/stillhouse-backend/internal/lots"
	"github.com/copperstill/stillhouse-backend/pkg/db/models"
	"github.com/copperstill/stillhouse-backend/pkg/enums"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
)

// Service answers stock questions by folding the ledger. There is no cached
// balance anywhere: every answer is derived from the entries at read time.
type Service interface {
	OnHand(ctx context.Context, orgID, itemID uuid.UUID) (*ItemStock, error)
	LotStock(ctx context.Context, orgID, lotID uuid.UUID) (*LotStock, error)
	CheckAvailability(ctx context.Context, orgID uuid.UUID, requirements []Requirement) (*AvailabilityResult, error)
	RecentTransactions(ctx context.Context, orgID, itemID uuid.UUID, lotID *uuid.UUID, limit int) ([]models.InventoryTransaction, error)
}

// ItemStock is the folded on-hand position of one item.
type ItemStock struct {
	ItemID uuid.UUID       `json:"item_id"`
	Name   string          `json:"name"`
	OnHand decimal.Decimal `json:"on_hand"`
	Unit   string          `json:"unit"`
}

// LotStock is the folded position of one lot. LotRemaining echoes the lot
// row's own balance for comparison; when the two disagree the service logs a
// drift warning and reports the fold, never the row.
type LotStock struct {
	LotID        uuid.UUID       `json:"lot_id"`
	ItemID       uuid.UUID       `json:"item_id"`
	OnHand       decimal.Decimal `json:"on_hand"`
	LotRemaining decimal.Decimal `json:"lot_remaining"`
	Unit         string          `json:"unit"`
}

// Requirement is one item demand to test against current stock.
type Requirement struct {
	ItemID   uuid.UUID
	Quantity decimal.Decimal
}

// AvailabilityLine reports one item's position against its requirement.
type AvailabilityLine struct {
	ItemID     uuid.UUID       `json:"item_id"`
	ItemName   string          `json:"item_name"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
	Shortage   decimal.Decimal `json:"shortage"`
	Sufficient bool            `json:"sufficient"`
}

// AvailabilityResult is the full sufficiency report. Sufficient is true only
// when every line is.
type AvailabilityResult struct {
	Sufficient bool               `json:"sufficient"`
	Lines      []AvailabilityLine `json:"lines"`
}

type service struct {
	ledger ledger.Repository
	lots   lots.Repository
	items  items.Repository
	logg   *logger.Logger
}

// NewService wires the stock query service with its repositories.
func NewService(ledgerRepo ledger.Repository, lotRepo lots.Repository, itemRepo items.Repository, logg *logger.Logger) (Service, error) {
	if ledgerRepo == nil || lotRepo == nil || itemRepo == nil || logg == nil {
		return nil, fmt.Errorf("stock service requires ledger, lot and item repositories and a logger")
	}
	return &service{ledger: ledgerRepo, lots: lotRepo, items: itemRepo, logg: logg}, nil
}

func (s *service) OnHand(ctx context.Context, orgID, itemID uuid.UUID) (*ItemStock, error) {
	item, err := s.items.FindByID(ctx, orgID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up item")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	entries, err := s.ledger.ListByItem(ctx, orgID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger entries")
	}

	return &ItemStock{
		ItemID: item.ID,
		Name:   item.Name,
		OnHand: fold(entries),
		Unit:   item.DefaultUnit,
	}, nil
}

func (s *service) LotStock(ctx context.Context, orgID, lotID uuid.UUID) (*LotStock, error) {
	lot, err := s.lots.FindByID(ctx, orgID, lotID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up lot")
	}
	if lot == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lot not found")
	}

	entries, err := s.ledger.ListByLot(ctx, orgID, lotID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger entries")
	}

	onHand := fold(entries)
	if !onHand.Equal(lot.RemainingQty) {
		// Diagnostic only. The lot row is an allocation device; the ledger
		// stays the source of truth and is never back-patched from here.
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"lot_id":        lot.ID.String(),
			"item_id":       lot.ItemID.String(),
			"ledger_fold":   onHand.String(),
			"lot_remaining": lot.RemainingQty.String(),
		}), "lot balance drifted from ledger fold")
	}

	unit := ""
	if item, err := s.items.FindByID(ctx, orgID, lot.ItemID); err == nil && item != nil {
		unit = item.DefaultUnit
	}

	return &LotStock{
		LotID:        lot.ID,
		ItemID:       lot.ItemID,
		OnHand:       onHand,
		LotRemaining: lot.RemainingQty,
		Unit:         unit,
	}, nil
}

// CheckAvailability reports sufficiency for every requirement. It is a pure
// read: nothing is reserved, and the answer can be stale by the time a commit
// is attempted.
func (s *service) CheckAvailability(ctx context.Context, orgID uuid.UUID, requirements []Requirement) (*AvailabilityResult, error) {
	if len(requirements) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one requirement is needed")
	}

	// Duplicate item lines collapse into one demand figure.
	required := map[uuid.UUID]decimal.Decimal{}
	order := make([]uuid.UUID, 0, len(requirements))
	for _, req := range requirements {
		if req.ItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "requirement item id is required")
		}
		if !req.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "requirement quantity must be positive")
		}
		if _, seen := required[req.ItemID]; !seen {
			order = append(order, req.ItemID)
		}
		required[req.ItemID] = required[req.ItemID].Add(req.Quantity)
	}

	catalog, err := s.items.ListByIDs(ctx, orgID, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load items")
	}
	byID := make(map[uuid.UUID]models.Item, len(catalog))
	for _, item := range catalog {
		byID[item.ID] = item
	}

	result := &AvailabilityResult{Sufficient: true}
	for _, itemID := range order {
		item, ok := byID[itemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %s not found", itemID))
		}

		entries, err := s.ledger.ListByItem(ctx, orgID, itemID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger entries")
		}

		available := fold(entries)
		need := required[itemID]
		shortage := need.Sub(available)
		if shortage.IsNegative() {
			shortage = decimal.Zero
		}
		sufficient := shortage.IsZero()
		if !sufficient {
			result.Sufficient = false
		}

		result.Lines = append(result.Lines, AvailabilityLine{
			ItemID:     itemID,
			ItemName:   item.Name,
			Required:   need,
			Available:  available,
			Shortage:   shortage,
			Sufficient: sufficient,
		})
	}
	return result, nil
}

func (s *service) RecentTransactions(ctx context.Context, orgID, itemID uuid.UUID, lotID *uuid.UUID, limit int) ([]models.InventoryTransaction, error) {
	entries, err := s.ledger.Recent(ctx, orgID, itemID, lotID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent entries")
	}
	return entries, nil
}

// fold accumulates entries into an on-hand figure by each type's direction.
func fold(entries []models.InventoryTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		switch entry.Type.Direction() {
		case enums.StockInbound:
			total = total.Add(entry.Quantity)
		case enums.StockOutbound:
			total = total.Sub(entry.Quantity)
		case enums.StockSignedDelta:
			if entry.Delta != nil {
				total = total.Add(*entry.Delta)
			}
		}
	}
	return total
}
