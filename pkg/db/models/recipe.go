package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recipe is a named formulation. Owned by recipe management; the engine only
// reads it.
type Recipe struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;index"`
	Name           string    `gorm:"column:name;not null"`
	// BaselineVolumeL is the batch size the stored ingredient quantities
	// were authored against. Nullable: legacy recipes predate the column.
	BaselineVolumeL *decimal.Decimal `gorm:"column:baseline_volume_l;type:numeric(10,2)"`
	// TargetABV is a fraction, e.g. 0.4200 for a 42% bottling strength.
	TargetABV   *decimal.Decimal   `gorm:"column:target_abv;type:numeric(5,4)"`
	Description *string            `gorm:"column:description"`
	Notes       *string            `gorm:"column:notes"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
