package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecipeIngredient is one line of a formulation, quantified against the
// recipe's baseline volume. Position preserves the authored order; the
// conservation check depends on it when a recipe carries more than one
// alcohol-bearing line.
type RecipeIngredient struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrganizationID      uuid.UUID       `gorm:"column:organization_id;type:uuid;not null;index"`
	RecipeID            uuid.UUID       `gorm:"column:recipe_id;type:uuid;not null;index"`
	ItemID              uuid.UUID       `gorm:"column:item_id;type:uuid;not null"`
	QuantityPerBaseline decimal.Decimal `gorm:"column:quantity_per_baseline;type:numeric(14,3);not null"`
	Unit                string          `gorm:"column:unit;not null"`
	ProcessingStep      string          `gorm:"column:processing_step;not null;default:blend"`
	Position            int             `gorm:"column:position;not null;default:0"`
	Item                Item            `gorm:"foreignKey:ItemID"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}
