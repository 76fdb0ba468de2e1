package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/copperstill/stillhouse-backend/pkg/db/models"
)

// Repository manages persistence for inventory ledger entries. The table is
// append-only: there is no update or delete surface, by construction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.InventoryTransaction) error
	ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.InventoryTransaction, error)
	ListByLot(ctx context.Context, orgID, lotID uuid.UUID) ([]models.InventoryTransaction, error)
	Recent(ctx context.Context, orgID, itemID uuid.UUID, lotID *uuid.UUID, limit int) ([]models.InventoryTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.InventoryTransaction, error) {
	var entries []models.InventoryTransaction
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND item_id = ?", orgID, itemID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByLot(ctx context.Context, orgID, lotID uuid.UUID) ([]models.InventoryTransaction, error) {
	var entries []models.InventoryTransaction
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND lot_id = ?", orgID, lotID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) Recent(ctx context.Context, orgID, itemID uuid.UUID, lotID *uuid.UUID, limit int) ([]models.InventoryTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	q := r.db.WithContext(ctx).
		Where("organization_id = ? AND item_id = ?", orgID, itemID)
	if lotID != nil {
		q = q.Where("lot_id = ?", *lotID)
	}

	var entries []models.InventoryTransaction
	if err := q.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
