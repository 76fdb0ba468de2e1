package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperstill/stillhouse-backend/pkg/enums"
)

// BatchMaterial is one committed material line for a batch: the audit record
// the cost aggregator folds. Written only by the consumption transactor,
// inside the same transaction as the ledger entry and lot decrements.
type BatchMaterial struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID          `gorm:"column:organization_id;type:uuid;not null;index"`
	BatchID        uuid.UUID          `gorm:"column:batch_id;type:uuid;not null;index"`
	BatchType      enums.BatchType    `gorm:"column:batch_type;type:batch_type_enum;not null"`
	MaterialType   enums.MaterialType `gorm:"column:material_type;type:batch_material_type_enum;not null"`
	// ItemID is nil for untracked inputs such as water.
	ItemID    *uuid.UUID      `gorm:"column:item_id;type:uuid"`
	ItemName  string          `gorm:"column:item_name;not null"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	Unit      string          `gorm:"column:unit;not null"`
	UnitCost  decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,4);not null;default:0"`
	TotalCost decimal.Decimal `gorm:"column:total_cost;type:numeric(12,2);not null;default:0"`
	Supplier  *string         `gorm:"column:supplier"`
	LotID     *uuid.UUID      `gorm:"column:lot_id;type:uuid"`
	CreatedBy *uuid.UUID      `gorm:"column:created_by;type:uuid"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
