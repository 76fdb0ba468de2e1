package costs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/copperstill/stillhouse-backend/pkg/db/models"
	"github.com/copperstill/stillhouse-backend/pkg/enums"
)

// Repository manages persistence for batch cost summaries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, summary *models.BatchCostSummary) error
	Find(ctx context.Context, orgID, batchID uuid.UUID, batchType enums.BatchType) (*models.BatchCostSummary, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cost summary repository bound to the provided
// database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert writes the summary keyed by batch identity. Recomputation replaces
// the stored figures wholesale, which is what makes it safe to repeat.
func (r *repository) Upsert(ctx context.Context, summary *models.BatchCostSummary) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "organization_id"},
				{Name: "batch_id"},
				{Name: "batch_type"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"ethanol_cost",
				"botanical_cost",
				"packaging_cost",
				"other_cost",
				"total_cost",
				"updated_at",
			}),
		}).
		Create(summary).Error
}

func (r *repository) Find(ctx context.Context, orgID, batchID uuid.UUID, batchType enums.BatchType) (*models.BatchCostSummary, error) {
	var summary models.BatchCostSummary
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND batch_id = ? AND batch_type = ?", orgID, batchID, batchType).
		First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}
