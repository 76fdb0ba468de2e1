package lots

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/copperstill/stillhouse-backend/pkg/db/models"
)

// fifoOrder sorts open lots oldest-first. Undated lots sort last so dated
// stock drains before anything of unknown age; ties break on insertion
// order. The expression is valid on both Postgres and SQLite.
const fifoOrder = "received_date IS NULL, received_date ASC, created_at ASC"

// Repository manages persistence for inventory lots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, lot *models.Lot) error
	FindByID(ctx context.Context, orgID, lotID uuid.UUID) (*models.Lot, error)
	ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.Lot, error)
	OpenLotsFIFO(ctx context.Context, orgID, itemID uuid.UUID) ([]models.Lot, error)
	DecrementRemaining(ctx context.Context, orgID, lotID uuid.UUID, take decimal.Decimal) (bool, error)
	AdjustRemaining(ctx context.Context, orgID, lotID uuid.UUID, delta decimal.Decimal) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a lot repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, lot *models.Lot) error {
	return r.db.WithContext(ctx).Create(lot).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, lotID uuid.UUID) (*models.Lot, error) {
	var lot models.Lot
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", lotID, orgID).
		First(&lot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lot, nil
}

func (r *repository) ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.Lot, error) {
	var lots []models.Lot
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND item_id = ?", orgID, itemID).
		Order(fifoOrder).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// OpenLotsFIFO returns lots with stock remaining, in consumption order.
func (r *repository) OpenLotsFIFO(ctx context.Context, orgID, itemID uuid.UUID) ([]models.Lot, error) {
	var lots []models.Lot
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND item_id = ? AND remaining_qty > 0", orgID, itemID).
		Order(fifoOrder).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// DecrementRemaining takes stock from one lot. The WHERE clause re-checks the
// balance at write time, so a concurrent consumer that drained the lot first
// makes this report false instead of driving remaining_qty negative.
func (r *repository) DecrementRemaining(ctx context.Context, orgID, lotID uuid.UUID, take decimal.Decimal) (bool, error) {
	if !take.IsPositive() {
		return false, errors.New("take must be positive")
	}
	res := r.db.WithContext(ctx).Model(&models.Lot{}).
		Where("id = ? AND organization_id = ? AND remaining_qty >= ?", lotID, orgID, take).
		Update("remaining_qty", gorm.Expr("remaining_qty - ?", take))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AdjustRemaining applies a signed correction to one lot's balance, guarded
// so the result cannot go below zero.
func (r *repository) AdjustRemaining(ctx context.Context, orgID, lotID uuid.UUID, delta decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Lot{}).
		Where("id = ? AND organization_id = ? AND remaining_qty + ? >= 0", lotID, orgID, delta).
		Update("remaining_qty", gorm.Expr("remaining_qty + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
