package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lot is one dated receipt of an Item. RemainingQty only moves down outside
// of RECEIVE/ADJUST, and never below zero: decrements go through a
// conditional UPDATE guarded by remaining_qty >= take.
type Lot struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID       `gorm:"column:organization_id;type:uuid;not null;index;uniqueIndex:uniq_lots_org_item_code,priority:1"`
	ItemID         uuid.UUID       `gorm:"column:item_id;type:uuid;not null;index;uniqueIndex:uniq_lots_org_item_code,priority:2"`
	Code           string          `gorm:"column:code;not null;uniqueIndex:uniq_lots_org_item_code,priority:3"`
	ReceivedDate   *time.Time      `gorm:"column:received_date"`
	RemainingQty   decimal.Decimal `gorm:"column:remaining_qty;type:numeric(14,3);not null;default:0"`
	UnitCost       decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,4);not null;default:0"`
	Supplier       *string         `gorm:"column:supplier"`
	Note           *string         `gorm:"column:note"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
