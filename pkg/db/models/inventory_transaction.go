package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperstill/stillhouse-backend/pkg/enums"
)

// InventoryTransaction is one immutable ledger entry. Rows are never updated
// or deleted; corrections are new entries.
//
// Sign convention: Quantity is always a non-negative magnitude. RECEIVE and
// PRODUCE add it to on-hand, CONSUME/TRANSFER/DESTROY subtract it. ADJUST
// rows carry their signed movement in Delta and keep Quantity at zero.
type InventoryTransaction struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID             `gorm:"column:organization_id;type:uuid;not null;index"`
	ItemID         uuid.UUID             `gorm:"column:item_id;type:uuid;not null;index"`
	LotID          *uuid.UUID            `gorm:"column:lot_id;type:uuid;index"`
	Type           enums.TransactionType `gorm:"column:txn_type;type:inventory_txn_type_enum;not null"`
	Quantity       decimal.Decimal       `gorm:"column:quantity;type:numeric(14,3);not null;default:0"`
	Delta          *decimal.Decimal      `gorm:"column:delta;type:numeric(14,3)"`
	Unit           string                `gorm:"column:unit;not null"`
	ReferenceType  *string               `gorm:"column:reference_type"`
	ReferenceID    *uuid.UUID            `gorm:"column:reference_id;type:uuid"`
	UnitCost       *decimal.Decimal      `gorm:"column:unit_cost;type:numeric(12,4)"`
	TotalCost      *decimal.Decimal      `gorm:"column:total_cost;type:numeric(12,2)"`
	Note           *string               `gorm:"column:note"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
}
