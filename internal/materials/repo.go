package materials

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/copperstill/stillhouse-backend/pkg/db/models"
	"github.com/copperstill/stillhouse-backend/pkg/enums"
)

// Repository manages persistence for committed batch material lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, line *models.BatchMaterial) error
	ListByBatch(ctx context.Context, orgID, batchID uuid.UUID, batchType enums.BatchType) ([]models.BatchMaterial, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a batch material repository bound to the provided
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

func (r *repository) Create(ctx context.Context, line *models.BatchMaterial) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *repository) ListByBatch(ctx context.Context, orgID, batchID uuid.UUID, batchType enums.BatchType) ([]models.BatchMaterial, error) {
	var lines []models.BatchMaterial
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND batch_id = ? AND batch_type = ?", orgID, batchID, batchType).
		Order("created_at ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}
