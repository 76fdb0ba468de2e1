package lots

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/copperstill/stillhouse-backend/internal/items"
	"github.com/copperstill/stillhouse-backend/internal/ledger"
	"github.com/copperstill/stillhouse-backend/pkg/db"
	"github.com/copperstill/stillhouse-backend/pkg/db/models"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
)

// Service handles lot receiving and manual stock corrections. Both paths
// commit the lot balance change and its ledger entry together.
type Service interface {
	ReceiveLot(ctx context.Context, orgID uuid.UUID, input ReceiveLotInput) (*models.Lot, error)
	Get(ctx context.Context, orgID, lotID uuid.UUID) (*models.Lot, error)
	ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.Lot, error)
	OpenByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.Lot, error)
	Adjust(ctx context.Context, orgID uuid.UUID, input AdjustInput) (*models.InventoryTransaction, error)
}

// ReceiveLotInput captures one dated receipt of stock.
type ReceiveLotInput struct {
	ItemID       uuid.UUID
	Code         string
	Quantity     decimal.Decimal
	Unit         string
	UnitCost     decimal.Decimal
	ReceivedDate *time.Time
	Supplier     *string
	Note         *string
}

// AdjustInput captures a signed correction, lot-scoped when LotID is set.
type AdjustInput struct {
	ItemID uuid.UUID
	LotID  *uuid.UUID
	Delta  decimal.Decimal
	Note   *string
}

type service struct {
	client *db.Client
	repo   Repository
	items  items.Repository
	ledger ledger.Service
	logg   *logger.Logger
}

// NewService wires the lot service with its dependencies.
func NewService(client *db.Client, repo Repository, itemsRepo items.Repository, ledgerSvc ledger.Service, logg *logger.Logger) (Service, error) {
	if client == nil || repo == nil || itemsRepo == nil || ledgerSvc == nil || logg == nil {
		return nil, fmt.Errorf("lot service requires db client, lot repo, item repo, ledger service and logger")
	}
	return &service{client: client, repo: repo, items: itemsRepo, ledger: ledgerSvc, logg: logg}, nil
}

func (s *service) ReceiveLot(ctx context.Context, orgID uuid.UUID, input ReceiveLotInput) (*models.Lot, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if input.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot code is required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "received quantity must be positive")
	}
	if input.UnitCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cost cannot be negative")
	}

	item, err := s.items.FindByID(ctx, orgID, input.ItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up item")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	unit := input.Unit
	if unit == "" {
		unit = item.DefaultUnit
	}

	lot := &models.Lot{
		OrganizationID: orgID,
		ItemID:         item.ID,
		Code:           input.Code,
		ReceivedDate:   input.ReceivedDate,
		RemainingQty:   input.Quantity,
		UnitCost:       input.UnitCost,
		Supplier:       input.Supplier,
		Note:           input.Note,
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, lot); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("lot code %q already exists for item", input.Code))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert lot")
		}

		entry := ledger.Receive(orgID, item.ID, lot.ID, input.Quantity, unit)
		cost := input.UnitCost
		total := input.UnitCost.Mul(input.Quantity)
		entry.UnitCost = &cost
		entry.TotalCost = &total
		entry.Note = input.Note

		_, err := s.ledger.WithTx(tx).Record(ctx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"lot_id":  lot.ID.String(),
		"item_id": item.ID.String(),
	}), fmt.Sprintf("received lot %s (%s %s)", lot.Code, input.Quantity, unit))
	return lot, nil
}

func (s *service) Get(ctx context.Context, orgID, lotID uuid.UUID) (*models.Lot, error) {
	lot, err := s.repo.FindByID(ctx, orgID, lotID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up lot")
	}
	if lot == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lot not found")
	}
	return lot, nil
}

func (s *service) ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.Lot, error) {
	lots, err := s.repo.ListByItem(ctx, orgID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lots")
	}
	return lots, nil
}

// OpenByItem lists the item's lots that still hold stock, in FIFO order.
func (s *service) OpenByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.Lot, error) {
	lots, err := s.repo.OpenLotsFIFO(ctx, orgID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open lots")
	}
	return lots, nil
}

// Adjust records a signed correction. Lot-scoped adjustments also move the
// lot balance, refusing any delta that would take it below zero; item-scoped
// adjustments touch the ledger only.
func (s *service) Adjust(ctx context.Context, orgID uuid.UUID, input AdjustInput) (*models.InventoryTransaction, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if input.Delta.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment delta must be non-zero")
	}

	item, err := s.items.FindByID(ctx, orgID, input.ItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up item")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	if input.LotID != nil {
		lot, err := s.repo.FindByID(ctx, orgID, *input.LotID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up lot")
		}
		if lot == nil || lot.ItemID != item.ID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lot not found for item")
		}
	}

	var entry *models.InventoryTransaction
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if input.LotID != nil {
			ok, err := s.repo.WithTx(tx).AdjustRemaining(ctx, orgID, *input.LotID, input.Delta)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust lot balance")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "adjustment would take lot balance below zero")
			}
		}

		var err error
		entry, err = s.ledger.WithTx(tx).Record(ctx, ledger.Adjustment(orgID, item.ID, input.LotID, input.Delta, item.DefaultUnit, input.Note))
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
