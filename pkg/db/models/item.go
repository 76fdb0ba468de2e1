package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperstill/stillhouse-backend/pkg/enums"
)

// Item is a material definition in the catalog. Identity fields are frozen
// once ledger entries reference the item; only descriptive fields change.
type Item struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID          `gorm:"column:organization_id;type:uuid;not null;index"`
	Name           string             `gorm:"column:name;not null"`
	Category       enums.ItemCategory `gorm:"column:category;type:item_category_enum;not null"`
	DefaultUnit    string             `gorm:"column:default_unit;not null"`
	IsAlcohol      bool               `gorm:"column:is_alcohol;not null;default:false"`
	// ABVPercent is meaningful only when IsAlcohol is set, e.g. 82.00 for
	// neutral grain spirit received at 82% ABV.
	ABVPercent *decimal.Decimal `gorm:"column:abv_percent;type:numeric(5,2)"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
