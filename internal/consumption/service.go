package consumption

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/copperstill/stillhouse-backend/internal/allocation"
	"github.com/copperstill/stillhouse-backend/internal/items"
	"github.com/copperstill/stillhouse-backend/internal/ledger"
	"github.com/copperstill/stillhouse-backend/internal/lots"
	"github.com/copperstill/stillhouse-backend/internal/materials"
	"github.com/copperstill/stillhouse-backend/internal/stock"
	"github.com/copperstill/stillhouse-backend/pkg/db"
	"github.com/copperstill/stillhouse-backend/pkg/db/models"
	"github.com/copperstill/stillhouse-backend/pkg/enums"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
	"github.com/copperstill/stillhouse-backend/pkg/metrics"
)

// Service commits material consumption against a batch: FIFO lot allocation,
// CONSUME ledger entries and batch material lines land in one transaction or
// not at all.
type Service interface {
	ConsumeForBatch(ctx context.Context, orgID uuid.UUID, input ConsumeInput) (*ConsumeResult, error)
}

// MaterialSelection is one tracked item demand for the batch.
type MaterialSelection struct {
	ItemID   uuid.UUID
	Quantity decimal.Decimal
}

// WaterAddition is an untracked input: it becomes a costless material line
// and touches neither the ledger nor any lot.
type WaterAddition struct {
	Quantity decimal.Decimal
	Unit     string
}

// ConsumeInput is the full commit request for one batch.
type ConsumeInput struct {
	BatchID    uuid.UUID
	BatchType  enums.BatchType
	Selections []MaterialSelection
	Water      *WaterAddition
	CreatedBy  *uuid.UUID
}

// ConsumedAllocation is one lot take with its ledger entry.
type ConsumedAllocation struct {
	LotID         uuid.UUID       `json:"lot_id"`
	LotCode       string          `json:"lot_code"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TransactionID uuid.UUID       `json:"transaction_id"`
}

// ConsumedLine summarizes one selection after commit.
type ConsumedLine struct {
	ItemID       uuid.UUID            `json:"item_id"`
	ItemName     string               `json:"item_name"`
	MaterialType enums.MaterialType   `json:"material_type"`
	Quantity     decimal.Decimal      `json:"quantity"`
	Unit         string               `json:"unit"`
	TotalCost    decimal.Decimal      `json:"total_cost"`
	Allocations  []ConsumedAllocation `json:"allocations"`
}

// CostDelta is what this commit added to each cost bucket.
type CostDelta struct {
	Ethanol   decimal.Decimal `json:"ethanol"`
	Botanical decimal.Decimal `json:"botanical"`
	Packaging decimal.Decimal `json:"packaging"`
	Other     decimal.Decimal `json:"other"`
	Total     decimal.Decimal `json:"total"`
}

// ConsumeResult is the committed outcome.
type ConsumeResult struct {
	BatchID   uuid.UUID       `json:"batch_id"`
	BatchType enums.BatchType `json:"batch_type"`
	Lines     []ConsumedLine  `json:"lines"`
	CostDelta CostDelta       `json:"cost_delta"`
}

type service struct {
	client  *db.Client
	lots    lots.Repository
	items   items.Repository
	ledger  ledger.Service
	lines   materials.Repository
	stock   stock.Service
	metrics *metrics.ConsumptionMetrics
	logg    *logger.Logger
}

// NewService wires the consumption transactor.
func NewService(
	client *db.Client,
	lotRepo lots.Repository,
	itemRepo items.Repository,
	ledgerSvc ledger.Service,
	materialRepo materials.Repository,
	stockSvc stock.Service,
	m *metrics.ConsumptionMetrics,
	logg *logger.Logger,
) (Service, error) {
	if client == nil || lotRepo == nil || itemRepo == nil || ledgerSvc == nil || materialRepo == nil || stockSvc == nil || logg == nil {
		return nil, fmt.Errorf("consumption service is missing a dependency")
	}
	return &service{
		client:  client,
		lots:    lotRepo,
		items:   itemRepo,
		ledger:  ledgerSvc,
		lines:   materialRepo,
		stock:   stockSvc,
		metrics: m,
		logg:    logg,
	}, nil
}

// ConsumeForBatch validates the selections, gates on current availability,
// then commits the whole consumption in a single transaction. Stock that
// disappears between the gate and the commit surfaces as a
// CONCURRENT_MODIFICATION error and rolls everything back.
func (s *service) ConsumeForBatch(ctx context.Context, orgID uuid.UUID, input ConsumeInput) (*ConsumeResult, error) {
	start := time.Now()
	result, err := s.consume(ctx, orgID, input)
	s.metrics.ObserveCommit(string(input.BatchType), outcomeLabel(err), time.Since(start))
	return result, err
}

func (s *service) consume(ctx context.Context, orgID uuid.UUID, input ConsumeInput) (*ConsumeResult, error) {
	if err := s.validate(orgID, input); err != nil {
		return nil, err
	}

	itemIDs := make([]uuid.UUID, 0, len(input.Selections))
	for _, sel := range input.Selections {
		itemIDs = append(itemIDs, sel.ItemID)
	}
	catalog, err := s.items.ListByIDs(ctx, orgID, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load items")
	}
	byID := make(map[uuid.UUID]models.Item, len(catalog))
	for _, item := range catalog {
		byID[item.ID] = item
	}
	for _, sel := range input.Selections {
		if _, ok := byID[sel.ItemID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %s not found", sel.ItemID))
		}
	}

	// Availability gate. A pure read, so a pass here can still lose the race
	// against a concurrent commit; the allocation below re-checks durably.
	if len(input.Selections) > 0 {
		requirements := make([]stock.Requirement, 0, len(input.Selections))
		for _, sel := range input.Selections {
			requirements = append(requirements, stock.Requirement{ItemID: sel.ItemID, Quantity: sel.Quantity})
		}
		availability, err := s.stock.CheckAvailability(ctx, orgID, requirements)
		if err != nil {
			return nil, err
		}
		if !availability.Sufficient {
			s.metrics.IncShortage("check")
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for batch").
				WithDetails(shortLines(availability))
		}
	}

	result := &ConsumeResult{
		BatchID:   input.BatchID,
		BatchType: input.BatchType,
		CostDelta: zeroDelta(),
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		lotRepo := s.lots.WithTx(tx)
		ledgerSvc := s.ledger.WithTx(tx)
		lineRepo := s.lines.WithTx(tx)

		for _, sel := range input.Selections {
			item := byID[sel.ItemID]

			alloc, err := allocation.Allocate(ctx, lotRepo, orgID, sel.ItemID, sel.Quantity)
			if err != nil {
				return err
			}
			if alloc.Shortage.IsPositive() {
				s.metrics.IncShortage("commit")
				return pkgerrors.New(pkgerrors.CodeConcurrentModification, "stock changed during commit").
					WithDetails(map[string]any{
						"item_id":   sel.ItemID.String(),
						"item_name": item.Name,
						"requested": alloc.Requested.String(),
						"allocated": alloc.Allocated.String(),
						"shortage":  alloc.Shortage.String(),
					})
			}

			line, err := s.commitSelection(ctx, ledgerSvc, lineRepo, orgID, input, item, alloc)
			if err != nil {
				return err
			}
			result.Lines = append(result.Lines, *line)
			addToDelta(&result.CostDelta, line.MaterialType, line.TotalCost)
		}

		if input.Water != nil && input.Water.Quantity.IsPositive() {
			line, err := s.commitWater(ctx, lineRepo, orgID, input)
			if err != nil {
				return err
			}
			result.Lines = append(result.Lines, *line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"batch_id":   input.BatchID.String(),
		"batch_type": string(input.BatchType),
		"lines":      len(result.Lines),
		"total_cost": result.CostDelta.Total.String(),
	}), "batch consumption committed")
	return result, nil
}

// commitSelection writes one CONSUME ledger entry and one material line per
// lot take, all on the supplied transaction.
func (s *service) commitSelection(
	ctx context.Context,
	ledgerSvc ledger.Service,
	lineRepo materials.Repository,
	orgID uuid.UUID,
	input ConsumeInput,
	item models.Item,
	alloc *allocation.Result,
) (*ConsumedLine, error) {
	materialType := enums.MaterialTypeForCategory(item.Category)
	line := &ConsumedLine{
		ItemID:       item.ID,
		ItemName:     item.Name,
		MaterialType: materialType,
		Quantity:     alloc.Allocated,
		Unit:         item.DefaultUnit,
		TotalCost:    decimal.Zero,
	}

	for _, take := range alloc.Allocations {
		takeCost := take.UnitCost.Mul(take.Quantity)

		entry := ledger.Consume(orgID, item.ID, take.Quantity, item.DefaultUnit, input.BatchID)
		lotID := take.LotID
		entry.LotID = &lotID
		unitCost := take.UnitCost
		entry.UnitCost = &unitCost
		totalCost := takeCost
		entry.TotalCost = &totalCost

		recorded, err := ledgerSvc.Record(ctx, entry)
		if err != nil {
			return nil, err
		}

		material := &models.BatchMaterial{
			OrganizationID: orgID,
			BatchID:        input.BatchID,
			BatchType:      input.BatchType,
			MaterialType:   materialType,
			ItemID:         &item.ID,
			ItemName:       item.Name,
			Quantity:       take.Quantity,
			Unit:           item.DefaultUnit,
			UnitCost:       take.UnitCost,
			TotalCost:      takeCost,
			Supplier:       take.Supplier,
			LotID:          &lotID,
			CreatedBy:      input.CreatedBy,
		}
		if err := lineRepo.Create(ctx, material); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert material line")
		}

		line.TotalCost = line.TotalCost.Add(takeCost)
		line.Allocations = append(line.Allocations, ConsumedAllocation{
			LotID:         take.LotID,
			LotCode:       take.LotCode,
			Quantity:      take.Quantity,
			UnitCost:      take.UnitCost,
			TotalCost:     takeCost,
			TransactionID: recorded.ID,
		})
	}
	return line, nil
}

func (s *service) commitWater(ctx context.Context, lineRepo materials.Repository, orgID uuid.UUID, input ConsumeInput) (*ConsumedLine, error) {
	unit := input.Water.Unit
	if unit == "" {
		unit = "L"
	}
	material := &models.BatchMaterial{
		OrganizationID: orgID,
		BatchID:        input.BatchID,
		BatchType:      input.BatchType,
		MaterialType:   enums.MaterialTypeWater,
		ItemName:       "Water",
		Quantity:       input.Water.Quantity,
		Unit:           unit,
		UnitCost:       decimal.Zero,
		TotalCost:      decimal.Zero,
		CreatedBy:      input.CreatedBy,
	}
	if err := lineRepo.Create(ctx, material); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert water line")
	}
	return &ConsumedLine{
		ItemName:     "Water",
		MaterialType: enums.MaterialTypeWater,
		Quantity:     input.Water.Quantity,
		Unit:         unit,
		TotalCost:    decimal.Zero,
	}, nil
}

// validate reports every problem with the request at once.
func (s *service) validate(orgID uuid.UUID, input ConsumeInput) error {
	var errs error
	if orgID == uuid.Nil {
		errs = multierr.Append(errs, fmt.Errorf("organization id is required"))
	}
	if input.BatchID == uuid.Nil {
		errs = multierr.Append(errs, fmt.Errorf("batch id is required"))
	}
	if !input.BatchType.IsValid() {
		errs = multierr.Append(errs, fmt.Errorf("invalid batch type %q", input.BatchType))
	}
	if len(input.Selections) == 0 && (input.Water == nil || !input.Water.Quantity.IsPositive()) {
		errs = multierr.Append(errs, fmt.Errorf("at least one material selection is required"))
	}
	for i, sel := range input.Selections {
		if sel.ItemID == uuid.Nil {
			errs = multierr.Append(errs, fmt.Errorf("selection %d: item id is required", i))
		}
		if !sel.Quantity.IsPositive() {
			errs = multierr.Append(errs, fmt.Errorf("selection %d: quantity must be positive", i))
		}
	}
	if input.Water != nil && input.Water.Quantity.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("water quantity cannot be negative"))
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "invalid consumption request")
	}
	return nil
}

func shortLines(availability *stock.AvailabilityResult) []stock.AvailabilityLine {
	short := make([]stock.AvailabilityLine, 0, len(availability.Lines))
	for _, line := range availability.Lines {
		if !line.Sufficient {
			short = append(short, line)
		}
	}
	return short
}

func zeroDelta() CostDelta {
	return CostDelta{
		Ethanol:   decimal.Zero,
		Botanical: decimal.Zero,
		Packaging: decimal.Zero,
		Other:     decimal.Zero,
		Total:     decimal.Zero,
	}
}

func addToDelta(delta *CostDelta, materialType enums.MaterialType, cost decimal.Decimal) {
	switch materialType {
	case enums.MaterialTypeEthanol:
		delta.Ethanol = delta.Ethanol.Add(cost)
	case enums.MaterialTypeBotanical:
		delta.Botanical = delta.Botanical.Add(cost)
	case enums.MaterialTypePackaging:
		delta.Packaging = delta.Packaging.Add(cost)
	default:
		delta.Other = delta.Other.Add(cost)
	}
	delta.Total = delta.Total.Add(cost)
}

func outcomeLabel(err error) string {
	if err == nil {
		return "committed"
	}
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeInsufficientStock:
			return "insufficient_stock"
		case pkgerrors.CodeConcurrentModification:
			return "concurrent_modification"
		case pkgerrors.CodeValidation, pkgerrors.CodeNotFound:
			return "rejected"
		}
	}
	return "error"
}
