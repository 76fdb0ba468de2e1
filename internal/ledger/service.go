package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/copperstill/stillhouse-backend/pkg/db/models"
	"github.com/copperstill/stillhouse-backend/pkg/enums"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
)

// Service records immutable inventory ledger entries.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Record(ctx context.Context, input EntryInput) (*models.InventoryTransaction, error)
}

type service struct {
	repo Repository
}

// EntryInput captures the data one ledger entry requires. Use the typed
// constructors (Receive, Consume, Adjustment, ...) rather than filling the
// struct by hand; they pin the sign convention per transaction type.
type EntryInput struct {
	OrganizationID uuid.UUID
	ItemID         uuid.UUID
	LotID          *uuid.UUID
	Type           enums.TransactionType
	Quantity       decimal.Decimal
	Delta          *decimal.Decimal
	Unit           string
	ReferenceType  *string
	ReferenceID    *uuid.UUID
	UnitCost       *decimal.Decimal
	TotalCost      *decimal.Decimal
	Note           *string
}

// Receive builds an inbound receipt entry against a lot.
func Receive(orgID, itemID, lotID uuid.UUID, quantity decimal.Decimal, unit string) EntryInput {
	lot := lotID
	return EntryInput{
		OrganizationID: orgID,
		ItemID:         itemID,
		LotID:          &lot,
		Type:           enums.TransactionTypeReceive,
		Quantity:       quantity,
		Unit:           unit,
	}
}

// Produce builds an inbound production-output entry.
func Produce(orgID, itemID uuid.UUID, quantity decimal.Decimal, unit string) EntryInput {
	return EntryInput{
		OrganizationID: orgID,
		ItemID:         itemID,
		Type:           enums.TransactionTypeProduce,
		Quantity:       quantity,
		Unit:           unit,
	}
}

// Consume builds an outbound consumption entry referencing the consuming
// batch.
func Consume(orgID, itemID uuid.UUID, quantity decimal.Decimal, unit string, batchID uuid.UUID) EntryInput {
	refType := "batch"
	ref := batchID
	return EntryInput{
		OrganizationID: orgID,
		ItemID:         itemID,
		Type:           enums.TransactionTypeConsume,
		Quantity:       quantity,
		Unit:           unit,
		ReferenceType:  &refType,
		ReferenceID:    &ref,
	}
}

// Destroy builds an outbound write-off entry.
func Destroy(orgID, itemID uuid.UUID, lotID *uuid.UUID, quantity decimal.Decimal, unit string) EntryInput {
	return EntryInput{
		OrganizationID: orgID,
		ItemID:         itemID,
		LotID:          lotID,
		Type:           enums.TransactionTypeDestroy,
		Quantity:       quantity,
		Unit:           unit,
	}
}

// Adjustment builds a signed correction entry. The delta is the only signed
// quantity in the ledger; the magnitude column stays zero.
func Adjustment(orgID, itemID uuid.UUID, lotID *uuid.UUID, delta decimal.Decimal, unit string, note *string) EntryInput {
	d := delta
	return EntryInput{
		OrganizationID: orgID,
		ItemID:         itemID,
		LotID:          lotID,
		Type:           enums.TransactionTypeAdjust,
		Delta:          &d,
		Unit:           unit,
		Note:           note,
	}
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Record(ctx context.Context, input EntryInput) (*models.InventoryTransaction, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	entry := &models.InventoryTransaction{
		OrganizationID: input.OrganizationID,
		ItemID:         input.ItemID,
		LotID:          input.LotID,
		Type:           input.Type,
		Quantity:       input.Quantity,
		Delta:          input.Delta,
		Unit:           input.Unit,
		ReferenceType:  input.ReferenceType,
		ReferenceID:    input.ReferenceID,
		UnitCost:       input.UnitCost,
		TotalCost:      input.TotalCost,
		Note:           input.Note,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert ledger entry")
	}
	return entry, nil
}

func validate(input EntryInput) error {
	if input.OrganizationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if input.ItemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if input.Unit == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit is required")
	}

	switch input.Type.Direction() {
	case enums.StockSignedDelta:
		if input.Delta == nil || input.Delta.IsZero() {
			return pkgerrors.New(pkgerrors.CodeValidation, "adjustment requires a non-zero signed delta")
		}
		if !input.Quantity.IsZero() {
			return pkgerrors.New(pkgerrors.CodeValidation, "adjustment carries its movement in delta, not quantity")
		}
	default:
		if input.Delta != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s entries must not carry a delta", input.Type))
		}
		if !input.Quantity.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s quantity must be a positive magnitude", input.Type))
		}
	}
	return nil
}
