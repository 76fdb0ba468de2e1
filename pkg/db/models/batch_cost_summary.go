package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperstill/stillhouse-backend/pkg/enums"
)

// BatchCostSummary is the per-batch cost roll-up, keyed by batch identity.
// Recomputation overwrites the row; it never accumulates.
type BatchCostSummary struct {
	OrganizationID uuid.UUID       `gorm:"column:organization_id;type:uuid;primaryKey"`
	BatchID        uuid.UUID       `gorm:"column:batch_id;type:uuid;primaryKey"`
	BatchType      enums.BatchType `gorm:"column:batch_type;type:batch_type_enum;primaryKey"`
	EthanolCost    decimal.Decimal `gorm:"column:ethanol_cost;type:numeric(12,2);not null;default:0"`
	BotanicalCost  decimal.Decimal `gorm:"column:botanical_cost;type:numeric(12,2);not null;default:0"`
	PackagingCost  decimal.Decimal `gorm:"column:packaging_cost;type:numeric(12,2);not null;default:0"`
	OtherCost      decimal.Decimal `gorm:"column:other_cost;type:numeric(12,2);not null;default:0"`
	TotalCost      decimal.Decimal `gorm:"column:total_cost;type:numeric(12,2);not null;default:0"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
