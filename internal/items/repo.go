package items

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/copperstill/stillhouse-backend/pkg/db/models"
)

// Repository manages persistence for catalog items. The catalog is maintained
// upstream; this service only reads it, plus Create for fixtures and seeds.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, orgID, itemID uuid.UUID) (*models.Item, error)
	ListByIDs(ctx context.Context, orgID uuid.UUID, itemIDs []uuid.UUID) ([]models.Item, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an item repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", itemID, orgID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListByIDs(ctx context.Context, orgID uuid.UUID, itemIDs []uuid.UUID) ([]models.Item, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var items []models.Item
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id IN ?", orgID, itemIDs).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
