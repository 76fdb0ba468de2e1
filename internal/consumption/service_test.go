package consumption

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperstill/stillhouse-backend/internal/items"
	"github.com/copperstill/stillhouse-backend/internal/ledger"
	"github.com/copperstill/stillhouse-backend/internal/lots"
	"github.com/copperstill/stillhouse-backend/internal/materials"
	"github.com/copperstill/stillhouse-backend/internal/stock"
	"github.com/copperstill/stillhouse-backend/pkg/config"
	"github.com/copperstill/stillhouse-backend/pkg/db"
	"github.com/copperstill/stillhouse-backend/pkg/db/models"
	"github.com/copperstill/stillhouse-backend/pkg/enums"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
)

type fixture struct {
	svc    Service
	client *db.Client
	orgID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	client, err := db.New(context.Background(), config.DBConfig{
		Driver: "sqlite",
		DSN:    "file:consumption_" + uuid.NewString() + "?mode=memory&cache=shared",
	}, nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.DB().AutoMigrate(
		&models.Item{}, &models.Lot{}, &models.InventoryTransaction{}, &models.BatchMaterial{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	lotRepo := lots.NewRepository(client.DB())
	itemRepo := items.NewRepository(client.DB())
	ledgerRepo := ledger.NewRepository(client.DB())
	ledgerSvc, err := ledger.NewService(ledgerRepo)
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	stockSvc, err := stock.NewService(ledgerRepo, lotRepo, itemRepo, logg)
	if err != nil {
		t.Fatalf("stock service: %v", err)
	}
	svc, err := NewService(client, lotRepo, itemRepo, ledgerSvc, materials.NewRepository(client.DB()), stockSvc, nil, logg)
	if err != nil {
		t.Fatalf("consumption service: %v", err)
	}

	return &fixture{svc: svc, client: client, orgID: uuid.New()}
}

// seedItemWithLots creates the item, its lots and the matching RECEIVE ledger
// entries so folds and lot balances agree.
func (f *fixture) seedItemWithLots(t *testing.T, name string, category enums.ItemCategory, lotSpecs []lotSpec) *models.Item {
	t.Helper()
	item := &models.Item{
		OrganizationID: f.orgID,
		Name:           name,
		Category:       category,
		DefaultUnit:    "L",
		IsAlcohol:      category == enums.ItemCategorySpirit,
	}
	if err := f.client.DB().Create(item).Error; err != nil {
		t.Fatalf("seed item %s: %v", name, err)
	}
	for _, spec := range lotSpecs {
		received := spec.received
		lot := &models.Lot{
			OrganizationID: f.orgID,
			ItemID:         item.ID,
			Code:           spec.code,
			ReceivedDate:   &received,
			RemainingQty:   spec.qty,
			UnitCost:       spec.unitCost,
		}
		if err := f.client.DB().Create(lot).Error; err != nil {
			t.Fatalf("seed lot %s: %v", spec.code, err)
		}
		entry := &models.InventoryTransaction{
			OrganizationID: f.orgID,
			ItemID:         item.ID,
			LotID:          &lot.ID,
			Type:           enums.TransactionTypeReceive,
			Quantity:       spec.qty,
			Unit:           "L",
		}
		if err := f.client.DB().Create(entry).Error; err != nil {
			t.Fatalf("seed receive entry for %s: %v", spec.code, err)
		}
	}
	return item
}

type lotSpec struct {
	code     string
	received time.Time
	qty      decimal.Decimal
	unitCost decimal.Decimal
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestConsumeForBatchCommitsEverythingTogether(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	jan := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	spirit := f.seedItemWithLots(t, "Neutral grain spirit", enums.ItemCategorySpirit, []lotSpec{
		{code: "NGS-JAN", received: jan, qty: dec("60"), unitCost: dec("2.00")},
		{code: "NGS-MAR", received: mar, qty: dec("100"), unitCost: dec("2.50")},
	})
	juniper := f.seedItemWithLots(t, "Juniper berries", enums.ItemCategoryBotanical, []lotSpec{
		{code: "JUN-01", received: jan, qty: dec("20"), unitCost: dec("12.00")},
	})

	batchID := uuid.New()
	result, err := f.svc.ConsumeForBatch(ctx, f.orgID, ConsumeInput{
		BatchID:   batchID,
		BatchType: enums.BatchTypeGin,
		Selections: []MaterialSelection{
			{ItemID: spirit.ID, Quantity: dec("90")},
			{ItemID: juniper.ID, Quantity: dec("5")},
		},
		Water: &WaterAddition{Quantity: dec("400")},
	})
	if err != nil {
		t.Fatalf("ConsumeForBatch: %v", err)
	}

	if len(result.Lines) != 3 {
		t.Fatalf("lines = %d, want spirit, juniper and water", len(result.Lines))
	}

	spiritLine := result.Lines[0]
	if len(spiritLine.Allocations) != 2 {
		t.Fatalf("spirit allocations = %d, want FIFO split across both lots", len(spiritLine.Allocations))
	}
	if spiritLine.Allocations[0].LotCode != "NGS-JAN" || !spiritLine.Allocations[0].Quantity.Equal(dec("60")) {
		t.Errorf("first take = %+v, want 60 from the January lot", spiritLine.Allocations[0])
	}
	if spiritLine.Allocations[1].LotCode != "NGS-MAR" || !spiritLine.Allocations[1].Quantity.Equal(dec("30")) {
		t.Errorf("second take = %+v, want 30 from the March lot", spiritLine.Allocations[1])
	}
	// 60 * 2.00 + 30 * 2.50
	if !spiritLine.TotalCost.Equal(dec("195")) {
		t.Errorf("spirit cost = %s, want 195", spiritLine.TotalCost)
	}

	if !result.CostDelta.Ethanol.Equal(dec("195")) {
		t.Errorf("ethanol delta = %s, want 195", result.CostDelta.Ethanol)
	}
	if !result.CostDelta.Botanical.Equal(dec("60")) {
		t.Errorf("botanical delta = %s, want 5 * 12.00 = 60", result.CostDelta.Botanical)
	}
	if !result.CostDelta.Total.Equal(dec("255")) {
		t.Errorf("total delta = %s, want 255", result.CostDelta.Total)
	}

	var consumeEntries int64
	if err := f.client.DB().Model(&models.InventoryTransaction{}).
		Where("txn_type = ?", enums.TransactionTypeConsume).
		Count(&consumeEntries).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if consumeEntries != 3 {
		t.Errorf("consume entries = %d, want one per lot take", consumeEntries)
	}

	var materialLines int64
	if err := f.client.DB().Model(&models.BatchMaterial{}).
		Where("batch_id = ?", batchID).
		Count(&materialLines).Error; err != nil {
		t.Fatalf("count material lines: %v", err)
	}
	if materialLines != 4 {
		t.Errorf("material lines = %d, want 3 takes plus water", materialLines)
	}

	var janLot models.Lot
	if err := f.client.DB().First(&janLot, "code = ?", "NGS-JAN").Error; err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	if !janLot.RemainingQty.IsZero() {
		t.Errorf("January lot remaining = %s, want 0", janLot.RemainingQty)
	}
}

func TestConsumeForBatchInsufficientStockListsEveryShortItem(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	jan := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	spirit := f.seedItemWithLots(t, "Neutral grain spirit", enums.ItemCategorySpirit, []lotSpec{
		{code: "NGS-01", received: jan, qty: dec("50"), unitCost: dec("2.00")},
	})
	juniper := f.seedItemWithLots(t, "Juniper berries", enums.ItemCategoryBotanical, []lotSpec{
		{code: "JUN-01", received: jan, qty: dec("2"), unitCost: dec("12.00")},
	})

	_, err := f.svc.ConsumeForBatch(ctx, f.orgID, ConsumeInput{
		BatchID:   uuid.New(),
		BatchType: enums.BatchTypeGin,
		Selections: []MaterialSelection{
			{ItemID: spirit.ID, Quantity: dec("80")},
			{ItemID: juniper.ID, Quantity: dec("5")},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
	short, ok := typed.Details().([]stock.AvailabilityLine)
	if !ok {
		t.Fatalf("details = %T, want availability lines", typed.Details())
	}
	if len(short) != 2 {
		t.Fatalf("short items = %d, want both listed", len(short))
	}

	var entries int64
	if err := f.client.DB().Model(&models.InventoryTransaction{}).
		Where("txn_type = ?", enums.TransactionTypeConsume).
		Count(&entries).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 0 {
		t.Errorf("consume entries = %d, want none after a gate failure", entries)
	}
}

func TestConsumeForBatchRollsBackOnCommitTimeShortage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	jan := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	spirit := f.seedItemWithLots(t, "Neutral grain spirit", enums.ItemCategorySpirit, []lotSpec{
		{code: "NGS-01", received: jan, qty: dec("100"), unitCost: dec("2.00")},
	})
	juniper := f.seedItemWithLots(t, "Juniper berries", enums.ItemCategoryBotanical, []lotSpec{
		{code: "JUN-01", received: jan, qty: dec("10"), unitCost: dec("12.00")},
	})

	// Simulate a racing consumer: the juniper lot was drained after the
	// RECEIVE entries landed, so the fold still reports 10 on hand while the
	// lot row only holds 3.
	if err := f.client.DB().Model(&models.Lot{}).
		Where("code = ?", "JUN-01").
		Update("remaining_qty", dec("3")).Error; err != nil {
		t.Fatalf("drain lot: %v", err)
	}

	_, err := f.svc.ConsumeForBatch(ctx, f.orgID, ConsumeInput{
		BatchID:   uuid.New(),
		BatchType: enums.BatchTypeGin,
		Selections: []MaterialSelection{
			{ItemID: spirit.ID, Quantity: dec("80")},
			{ItemID: juniper.ID, Quantity: dec("8")},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConcurrentModification {
		t.Fatalf("unexpected error: %v", err)
	}

	// The spirit allocation succeeded before the juniper shortage surfaced;
	// all of it must roll back.
	var spiritLot models.Lot
	if err := f.client.DB().First(&spiritLot, "code = ?", "NGS-01").Error; err != nil {
		t.Fatalf("reload spirit lot: %v", err)
	}
	if !spiritLot.RemainingQty.Equal(dec("100")) {
		t.Errorf("spirit lot remaining = %s, want the pre-commit 100 restored", spiritLot.RemainingQty)
	}

	var entries int64
	if err := f.client.DB().Model(&models.InventoryTransaction{}).
		Where("txn_type = ?", enums.TransactionTypeConsume).
		Count(&entries).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 0 {
		t.Errorf("consume entries = %d, want full rollback", entries)
	}

	var lines int64
	if err := f.client.DB().Model(&models.BatchMaterial{}).Count(&lines).Error; err != nil {
		t.Fatalf("count material lines: %v", err)
	}
	if lines != 0 {
		t.Errorf("material lines = %d, want full rollback", lines)
	}
}

func TestConsumeForBatchValidationReportsEveryProblem(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.ConsumeForBatch(context.Background(), f.orgID, ConsumeInput{
		BatchType: "whiskey",
		Selections: []MaterialSelection{
			{ItemID: uuid.Nil, Quantity: dec("-1")},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConsumeForBatchUnknownItem(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.ConsumeForBatch(context.Background(), f.orgID, ConsumeInput{
		BatchID:    uuid.New(),
		BatchType:  enums.BatchTypeGin,
		Selections: []MaterialSelection{{ItemID: uuid.New(), Quantity: dec("5")}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConsumeForBatchWaterOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	batchID := uuid.New()

	result, err := f.svc.ConsumeForBatch(ctx, f.orgID, ConsumeInput{
		BatchID:   batchID,
		BatchType: enums.BatchTypeVodka,
		Water:     &WaterAddition{Quantity: dec("650")},
	})
	if err != nil {
		t.Fatalf("ConsumeForBatch: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0].MaterialType != enums.MaterialTypeWater {
		t.Fatalf("lines = %+v, want a single water line", result.Lines)
	}
	if !result.CostDelta.Total.IsZero() {
		t.Errorf("cost delta = %s, want water to cost nothing", result.CostDelta.Total)
	}

	var line models.BatchMaterial
	if err := f.client.DB().First(&line, "batch_id = ?", batchID).Error; err != nil {
		t.Fatalf("load water line: %v", err)
	}
	if line.ItemID != nil {
		t.Error("water line must not reference a catalog item")
	}
}
