package stock

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/copperstill/stillhouse-backend/internal/items"
	"github.com/copperstill/stillhouse-backend/internal/ledger"
	"github.com/copperstill/stillhouse-backend/internal/lots"
	"github.com/copperstill/stillhouse-backend/pkg/db/models"
	"github.com/copperstill/stillhouse-backend/pkg/enums"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
)

type fakeLedgerRepo struct {
	entries []models.InventoryTransaction
}

func (f *fakeLedgerRepo) WithTx(tx *gorm.DB) ledger.Repository { return f }

func (f *fakeLedgerRepo) Create(ctx context.Context, entry *models.InventoryTransaction) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLedgerRepo) ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.InventoryTransaction, error) {
	var out []models.InventoryTransaction
	for _, e := range f.entries {
		if e.OrganizationID == orgID && e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) ListByLot(ctx context.Context, orgID, lotID uuid.UUID) ([]models.InventoryTransaction, error) {
	var out []models.InventoryTransaction
	for _, e := range f.entries {
		if e.OrganizationID == orgID && e.LotID != nil && *e.LotID == lotID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) Recent(ctx context.Context, orgID, itemID uuid.UUID, lotID *uuid.UUID, limit int) ([]models.InventoryTransaction, error) {
	return f.ListByItem(ctx, orgID, itemID)
}

type fakeLotRepo struct {
	lots map[uuid.UUID]*models.Lot
}

func (f *fakeLotRepo) WithTx(tx *gorm.DB) lots.Repository { return f }

func (f *fakeLotRepo) Create(ctx context.Context, lot *models.Lot) error {
	if f.lots == nil {
		f.lots = map[uuid.UUID]*models.Lot{}
	}
	f.lots[lot.ID] = lot
	return nil
}

func (f *fakeLotRepo) FindByID(ctx context.Context, orgID, lotID uuid.UUID) (*models.Lot, error) {
	lot, ok := f.lots[lotID]
	if !ok || lot.OrganizationID != orgID {
		return nil, nil
	}
	return lot, nil
}

func (f *fakeLotRepo) ListByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]models.Lot, error) {
	return nil, nil
}

func (f *fakeLotRepo) OpenLotsFIFO(ctx context.Context, orgID, itemID uuid.UUID) ([]models.Lot, error) {
	return nil, nil
}

func (f *fakeLotRepo) DecrementRemaining(ctx context.Context, orgID, lotID uuid.UUID, take decimal.Decimal) (bool, error) {
	return false, nil
}

func (f *fakeLotRepo) AdjustRemaining(ctx context.Context, orgID, lotID uuid.UUID, delta decimal.Decimal) (bool, error) {
	return false, nil
}

type fakeItemRepo struct {
	items map[uuid.UUID]*models.Item
}

func (f *fakeItemRepo) WithTx(tx *gorm.DB) items.Repository { return f }

func (f *fakeItemRepo) Create(ctx context.Context, item *models.Item) error {
	if f.items == nil {
		f.items = map[uuid.UUID]*models.Item{}
	}
	f.items[item.ID] = item
	return nil
}

func (f *fakeItemRepo) FindByID(ctx context.Context, orgID, itemID uuid.UUID) (*models.Item, error) {
	item, ok := f.items[itemID]
	if !ok || item.OrganizationID != orgID {
		return nil, nil
	}
	return item, nil
}

func (f *fakeItemRepo) ListByIDs(ctx context.Context, orgID uuid.UUID, itemIDs []uuid.UUID) ([]models.Item, error) {
	var out []models.Item
	for _, id := range itemIDs {
		if item, ok := f.items[id]; ok && item.OrganizationID == orgID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func newStockFixture(t *testing.T) (Service, *fakeLedgerRepo, *fakeLotRepo, *fakeItemRepo, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	ledgerRepo := &fakeLedgerRepo{}
	lotRepo := &fakeLotRepo{lots: map[uuid.UUID]*models.Lot{}}
	itemRepo := &fakeItemRepo{items: map[uuid.UUID]*models.Item{}}
	svc, err := NewService(ledgerRepo, lotRepo, itemRepo, logg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, ledgerRepo, lotRepo, itemRepo, &buf
}

func seedItem(repo *fakeItemRepo, orgID uuid.UUID, name string) *models.Item {
	item := &models.Item{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           name,
		Category:       enums.ItemCategorySpirit,
		DefaultUnit:    "L",
	}
	repo.items[item.ID] = item
	return item
}

func entry(orgID, itemID uuid.UUID, txnType enums.TransactionType, qty int64) models.InventoryTransaction {
	return models.InventoryTransaction{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ItemID:         itemID,
		Type:           txnType,
		Quantity:       decimal.NewFromInt(qty),
		Unit:           "L",
	}
}

func TestOnHandFoldsByDirection(t *testing.T) {
	svc, ledgerRepo, _, itemRepo, _ := newStockFixture(t)
	orgID := uuid.New()
	item := seedItem(itemRepo, orgID, "Neutral grain spirit")

	down := decimal.NewFromInt(-5)
	adjust := models.InventoryTransaction{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ItemID:         item.ID,
		Type:           enums.TransactionTypeAdjust,
		Delta:          &down,
		Unit:           "L",
	}
	ledgerRepo.entries = []models.InventoryTransaction{
		entry(orgID, item.ID, enums.TransactionTypeReceive, 100),
		entry(orgID, item.ID, enums.TransactionTypeConsume, 30),
		adjust,
	}

	got, err := svc.OnHand(context.Background(), orgID, item.ID)
	if err != nil {
		t.Fatalf("OnHand: %v", err)
	}
	if !got.OnHand.Equal(decimal.NewFromInt(65)) {
		t.Errorf("on hand = %s, want 65", got.OnHand)
	}
	if got.Unit != "L" {
		t.Errorf("unit = %q, want L", got.Unit)
	}
}

func TestOnHandUnknownItem(t *testing.T) {
	svc, _, _, _, _ := newStockFixture(t)

	_, err := svc.OnHand(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLotStockReportsFoldAndLogsDrift(t *testing.T) {
	svc, ledgerRepo, lotRepo, itemRepo, buf := newStockFixture(t)
	orgID := uuid.New()
	item := seedItem(itemRepo, orgID, "Juniper berries")

	lot := &models.Lot{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ItemID:         item.ID,
		Code:           "JUN-001",
		RemainingQty:   decimal.NewFromInt(35),
	}
	lotRepo.lots[lot.ID] = lot

	receive := entry(orgID, item.ID, enums.TransactionTypeReceive, 50)
	receive.LotID = &lot.ID
	consume := entry(orgID, item.ID, enums.TransactionTypeConsume, 10)
	consume.LotID = &lot.ID
	ledgerRepo.entries = []models.InventoryTransaction{receive, consume}

	got, err := svc.LotStock(context.Background(), orgID, lot.ID)
	if err != nil {
		t.Fatalf("LotStock: %v", err)
	}
	if !got.OnHand.Equal(decimal.NewFromInt(40)) {
		t.Errorf("fold = %s, want 40", got.OnHand)
	}
	if !got.LotRemaining.Equal(decimal.NewFromInt(35)) {
		t.Errorf("lot remaining = %s, want 35", got.LotRemaining)
	}
	if !strings.Contains(buf.String(), "drifted") {
		t.Error("expected a drift warning to be logged")
	}
	if !lot.RemainingQty.Equal(decimal.NewFromInt(35)) {
		t.Error("drift diagnostic must not reconcile the lot row")
	}
}

func TestLotStockNoDriftNoWarning(t *testing.T) {
	svc, ledgerRepo, lotRepo, itemRepo, buf := newStockFixture(t)
	orgID := uuid.New()
	item := seedItem(itemRepo, orgID, "Juniper berries")

	lot := &models.Lot{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ItemID:         item.ID,
		Code:           "JUN-002",
		RemainingQty:   decimal.NewFromInt(50),
	}
	lotRepo.lots[lot.ID] = lot

	receive := entry(orgID, item.ID, enums.TransactionTypeReceive, 50)
	receive.LotID = &lot.ID
	ledgerRepo.entries = []models.InventoryTransaction{receive}

	if _, err := svc.LotStock(context.Background(), orgID, lot.ID); err != nil {
		t.Fatalf("LotStock: %v", err)
	}
	if strings.Contains(buf.String(), "drifted") {
		t.Error("no drift expected, no warning expected")
	}
}

func TestCheckAvailabilityListsEveryShortItem(t *testing.T) {
	svc, ledgerRepo, _, itemRepo, _ := newStockFixture(t)
	orgID := uuid.New()
	spirit := seedItem(itemRepo, orgID, "Neutral grain spirit")
	juniper := seedItem(itemRepo, orgID, "Juniper berries")

	ledgerRepo.entries = []models.InventoryTransaction{
		entry(orgID, spirit.ID, enums.TransactionTypeReceive, 200),
		entry(orgID, juniper.ID, enums.TransactionTypeReceive, 5),
	}

	got, err := svc.CheckAvailability(context.Background(), orgID, []Requirement{
		{ItemID: spirit.ID, Quantity: decimal.NewFromInt(150)},
		{ItemID: juniper.ID, Quantity: decimal.NewFromInt(8)},
	})
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if got.Sufficient {
		t.Error("expected overall insufficiency")
	}
	if len(got.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(got.Lines))
	}
	if !got.Lines[0].Sufficient || !got.Lines[0].Shortage.IsZero() {
		t.Errorf("spirit line = %+v, want sufficient", got.Lines[0])
	}
	if got.Lines[1].Sufficient || !got.Lines[1].Shortage.Equal(decimal.NewFromInt(3)) {
		t.Errorf("juniper line = %+v, want shortage 3", got.Lines[1])
	}
}

func TestCheckAvailabilityAggregatesDuplicateItemLines(t *testing.T) {
	svc, ledgerRepo, _, itemRepo, _ := newStockFixture(t)
	orgID := uuid.New()
	spirit := seedItem(itemRepo, orgID, "Neutral grain spirit")

	ledgerRepo.entries = []models.InventoryTransaction{
		entry(orgID, spirit.ID, enums.TransactionTypeReceive, 100),
	}

	got, err := svc.CheckAvailability(context.Background(), orgID, []Requirement{
		{ItemID: spirit.ID, Quantity: decimal.NewFromInt(60)},
		{ItemID: spirit.ID, Quantity: decimal.NewFromInt(60)},
	})
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if len(got.Lines) != 1 {
		t.Fatalf("lines = %d, want duplicate demands collapsed into 1", len(got.Lines))
	}
	if !got.Lines[0].Required.Equal(decimal.NewFromInt(120)) {
		t.Errorf("required = %s, want 120", got.Lines[0].Required)
	}
	if !got.Lines[0].Shortage.Equal(decimal.NewFromInt(20)) {
		t.Errorf("shortage = %s, want 20", got.Lines[0].Shortage)
	}
}

func TestCheckAvailabilityValidation(t *testing.T) {
	svc, _, _, itemRepo, _ := newStockFixture(t)
	orgID := uuid.New()
	item := seedItem(itemRepo, orgID, "Neutral grain spirit")
	ctx := context.Background()

	if _, err := svc.CheckAvailability(ctx, orgID, nil); pkgerrors.As(err) == nil {
		t.Error("expected empty requirements to be rejected")
	}
	_, err := svc.CheckAvailability(ctx, orgID, []Requirement{{ItemID: item.ID, Quantity: decimal.Zero}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Errorf("unexpected error for zero quantity: %v", err)
	}
	_, err = svc.CheckAvailability(ctx, orgID, []Requirement{{ItemID: uuid.New(), Quantity: decimal.NewFromInt(1)}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Errorf("unexpected error for unknown item: %v", err)
	}
}
