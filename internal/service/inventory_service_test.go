package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeInventoryRepo struct {
	items     map[uuid.UUID]*model.InventoryItem
	movements []model.StockMovement
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{items: make(map[uuid.UUID]*model.InventoryItem)}
}

func (r *fakeInventoryRepo) Create(_ context.Context, item *model.InventoryItem) error {
	item.ID = uuid.New()
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *fakeInventoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (r *fakeInventoryRepo) FindByStoreAndFlavor(_ context.Context, storeID, flavorCode string) (*model.InventoryItem, error) {
	for _, item := range r.items {
		if item.StoreID == storeID && item.FlavorCode == flavorCode {
			copied := *item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInventoryRepo) ListByStore(_ context.Context, storeID string, _, _ int) ([]model.InventoryItem, int64, error) {
	var out []model.InventoryItem
	for _, item := range r.items {
		if item.StoreID == storeID {
			out = append(out, *item)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeInventoryRepo) Update(_ context.Context, item *model.InventoryItem) error {
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *fakeInventoryRepo) CreateMovement(_ context.Context, movement *model.StockMovement) error {
	r.movements = append(r.movements, *movement)
	return nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _, _ int) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

func newTestInventoryService(repo *fakeInventoryRepo) *inventoryService {
	return NewInventoryService(repo, &fakeAuditRepo{}, passthroughTxManager{}, nil).(*inventoryService)
}

func TestDeriveAlerts(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in3Days := now.Add(3 * 24 * time.Hour)
	in10Days := now.Add(10 * 24 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	healthy := &model.InventoryItem{QuantityG: 5_000, SafetyStock: 1_000, ExpiresAt: &in10Days}
	assert.Empty(t, DeriveAlerts(healthy, now))

	low := &model.InventoryItem{QuantityG: 500, SafetyStock: 1_000}
	assert.Equal(t, []string{model.AlertLowStock}, DeriveAlerts(low, now))

	expiring := &model.InventoryItem{QuantityG: 5_000, SafetyStock: 1_000, ExpiresAt: &in3Days}
	assert.Equal(t, []string{model.AlertExpiringSoon}, DeriveAlerts(expiring, now))

	expired := &model.InventoryItem{QuantityG: 5_000, SafetyStock: 1_000, ExpiresAt: &yesterday}
	assert.Equal(t, []string{model.AlertExpired}, DeriveAlerts(expired, now))

	both := &model.InventoryItem{QuantityG: 500, SafetyStock: 1_000, ExpiresAt: &yesterday}
	assert.ElementsMatch(t, []string{model.AlertLowStock, model.AlertExpired}, DeriveAlerts(both, now))
}

func TestDeriveAlerts_ExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	atNow := now
	item := &model.InventoryItem{QuantityG: 5_000, SafetyStock: 0, ExpiresAt: &atNow}
	assert.Equal(t, []string{model.AlertExpired}, DeriveAlerts(item, now))

	atWindow := now.Add(ExpiryWarningWindow)
	item = &model.InventoryItem{QuantityG: 5_000, SafetyStock: 0, ExpiresAt: &atWindow}
	assert.Equal(t, []string{model.AlertExpiringSoon}, DeriveAlerts(item, now))
}

func TestCreateItem_RecordsOpeningStock(t *testing.T) {
	repo := newFakeInventoryRepo()
	svc := newTestInventoryService(repo)

	res, err := svc.CreateItem(context.Background(), "", CreateItemRequest{
		StoreID: "ST-01", FlavorCode: "VANILLA_BEAN", QuantityG: 8_000, SafetyStock: 1_000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8_000), res.QuantityG)

	require.Len(t, repo.movements, 1)
	assert.Equal(t, model.MovementIn, repo.movements[0].MovementType)
	assert.Equal(t, int64(8_000), repo.movements[0].GramsChanged)
}

func TestAdjustStock_OutBelowZeroRejected(t *testing.T) {
	repo := newFakeInventoryRepo()
	svc := newTestInventoryService(repo)

	created, err := svc.CreateItem(context.Background(), "", CreateItemRequest{
		StoreID: "ST-01", FlavorCode: "VANILLA_BEAN", QuantityG: 100,
	})
	require.NoError(t, err)

	_, err = svc.AdjustStock(context.Background(), "", created.ID, AdjustStockRequest{
		MovementType: model.MovementOut, Grams: 200, Reason: "spoilage",
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	res, err := svc.AdjustStock(context.Background(), "", created.ID, AdjustStockRequest{
		MovementType: model.MovementOut, Grams: 100, Reason: "spoilage",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.QuantityG)
}

func TestAdjustStock_AppendsMovementLedger(t *testing.T) {
	repo := newFakeInventoryRepo()
	svc := newTestInventoryService(repo)

	created, err := svc.CreateItem(context.Background(), "", CreateItemRequest{
		StoreID: "ST-01", FlavorCode: "VANILLA_BEAN", QuantityG: 1_000,
	})
	require.NoError(t, err)

	_, err = svc.AdjustStock(context.Background(), "", created.ID, AdjustStockRequest{
		MovementType: model.MovementIn, Grams: 500,
	})
	require.NoError(t, err)

	// Opening stock plus the adjustment; the ledger only ever grows.
	require.Len(t, repo.movements, 2)
	assert.Equal(t, int64(1_500), repo.movements[1].StockAfter)
}

func TestDeductForSale_FloorsAtZeroAndSkipsUntracked(t *testing.T) {
	repo := newFakeInventoryRepo()
	svc := newTestInventoryService(repo)

	created, err := svc.CreateItem(context.Background(), "", CreateItemRequest{
		StoreID: "ST-01", FlavorCode: "VANILLA_BEAN", QuantityG: 150,
	})
	require.NoError(t, err)

	txID := uuid.New()
	err = svc.DeductForSale(context.Background(), "ST-01", txID, []model.TransactionLine{
		{FlavorCode: "VANILLA_BEAN", Grams: 200},
		{FlavorCode: "UNTRACKED_FLAVOR", Grams: 100},
	})
	require.NoError(t, err)

	item, err := repo.FindByID(context.Background(), uuid.MustParse(created.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(0), item.QuantityG, "sale deduction floors at zero")

	// Only the tracked flavor produced a sale movement, tagged with the tx.
	var saleMovements []model.StockMovement
	for _, m := range repo.movements {
		if m.TransactionID != nil && *m.TransactionID == txID {
			saleMovements = append(saleMovements, m)
		}
	}
	require.Len(t, saleMovements, 1)
	assert.Equal(t, model.MovementOut, saleMovements[0].MovementType)
}

func TestAlerts_DerivedAcrossStore(t *testing.T) {
	repo := newFakeInventoryRepo()
	svc := newTestInventoryService(repo)

	_, err := svc.CreateItem(context.Background(), "", CreateItemRequest{
		StoreID: "ST-01", FlavorCode: "VANILLA_BEAN", QuantityG: 100, SafetyStock: 1_000,
	})
	require.NoError(t, err)
	_, err = svc.CreateItem(context.Background(), "", CreateItemRequest{
		StoreID: "ST-01", FlavorCode: "DARK_CHOCOLATE", QuantityG: 9_000, SafetyStock: 1_000,
	})
	require.NoError(t, err)

	alerts, err := svc.Alerts(context.Background(), "ST-01")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertLowStock, alerts[0].AlertType)
	assert.Equal(t, "VANILLA_BEAN", alerts[0].FlavorCode)
}
