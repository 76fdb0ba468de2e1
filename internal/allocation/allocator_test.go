package allocation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/copperstill/stillhouse-backend/internal/lots"
	"github.com/copperstill/stillhouse-backend/pkg/db/models"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:allocation_" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Lot{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func seedLot(t *testing.T, gdb *gorm.DB, orgID, itemID uuid.UUID, code string, received *time.Time, qty string) *models.Lot {
	t.Helper()
	lot := &models.Lot{
		OrganizationID: orgID,
		ItemID:         itemID,
		Code:           code,
		ReceivedDate:   received,
		RemainingQty:   decimal.RequireFromString(qty),
		UnitCost:       decimal.RequireFromString("2.50"),
	}
	if err := gdb.Create(lot).Error; err != nil {
		t.Fatalf("seed lot %s: %v", code, err)
	}
	return lot
}

func TestAllocateDrainsOldestLotFirst(t *testing.T) {
	t.Parallel()

	gdb := newTestDB(t)
	repo := lots.NewRepository(gdb)
	ctx := context.Background()
	orgID := uuid.New()
	itemID := uuid.New()

	older := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	lotA := seedLot(t, gdb, orgID, itemID, "LOT-A", &older, "60")
	lotB := seedLot(t, gdb, orgID, itemID, "LOT-B", &newer, "100")

	result, err := Allocate(ctx, repo, orgID, itemID, decimal.RequireFromString("90"))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if !result.Allocated.Equal(decimal.RequireFromString("90")) || !result.Shortage.IsZero() {
		t.Fatalf("allocated=%s shortage=%s, want 90 and 0", result.Allocated, result.Shortage)
	}
	if len(result.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(result.Allocations))
	}
	if result.Allocations[0].LotID != lotA.ID || !result.Allocations[0].Quantity.Equal(decimal.RequireFromString("60")) {
		t.Errorf("first take = %+v, want all 60 from the older lot", result.Allocations[0])
	}
	if result.Allocations[1].LotID != lotB.ID || !result.Allocations[1].Quantity.Equal(decimal.RequireFromString("30")) {
		t.Errorf("second take = %+v, want 30 from the newer lot", result.Allocations[1])
	}

	var a, b models.Lot
	if err := gdb.First(&a, "id = ?", lotA.ID).Error; err != nil {
		t.Fatalf("reload lot a: %v", err)
	}
	if err := gdb.First(&b, "id = ?", lotB.ID).Error; err != nil {
		t.Fatalf("reload lot b: %v", err)
	}
	if !a.RemainingQty.IsZero() {
		t.Errorf("lot a remaining = %s, want 0", a.RemainingQty)
	}
	if !b.RemainingQty.Equal(decimal.RequireFromString("70")) {
		t.Errorf("lot b remaining = %s, want 70", b.RemainingQty)
	}
}

func TestAllocateUndatedLotsGoLast(t *testing.T) {
	t.Parallel()

	gdb := newTestDB(t)
	repo := lots.NewRepository(gdb)
	ctx := context.Background()
	orgID := uuid.New()
	itemID := uuid.New()

	dated := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	seedLot(t, gdb, orgID, itemID, "LOT-UNDATED", nil, "40")
	datedLot := seedLot(t, gdb, orgID, itemID, "LOT-DATED", &dated, "40")

	result, err := Allocate(ctx, repo, orgID, itemID, decimal.RequireFromString("30"))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(result.Allocations) != 1 || result.Allocations[0].LotID != datedLot.ID {
		t.Fatalf("allocations = %+v, want the dated lot only", result.Allocations)
	}
}

func TestAllocatePartialReportsShortage(t *testing.T) {
	t.Parallel()

	gdb := newTestDB(t)
	repo := lots.NewRepository(gdb)
	ctx := context.Background()
	orgID := uuid.New()
	itemID := uuid.New()

	received := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedLot(t, gdb, orgID, itemID, "LOT-ONLY", &received, "160")

	result, err := Allocate(ctx, repo, orgID, itemID, decimal.RequireFromString("200"))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if !result.Allocated.Equal(decimal.RequireFromString("160")) {
		t.Errorf("allocated = %s, want everything available", result.Allocated)
	}
	if !result.Shortage.Equal(decimal.RequireFromString("40")) {
		t.Errorf("shortage = %s, want 40", result.Shortage)
	}
}

func TestAllocateNoOpenLots(t *testing.T) {
	t.Parallel()

	gdb := newTestDB(t)
	repo := lots.NewRepository(gdb)

	result, err := Allocate(context.Background(), repo, uuid.New(), uuid.New(), decimal.RequireFromString("10"))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if !result.Shortage.Equal(decimal.RequireFromString("10")) || len(result.Allocations) != 0 {
		t.Errorf("result = %+v, want full shortage and no takes", result)
	}
}

func TestAllocateValidation(t *testing.T) {
	t.Parallel()

	gdb := newTestDB(t)
	repo := lots.NewRepository(gdb)

	_, err := Allocate(context.Background(), repo, uuid.New(), uuid.New(), decimal.Zero)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}
