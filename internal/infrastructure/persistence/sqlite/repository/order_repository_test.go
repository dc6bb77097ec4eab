package repository

import (
	"context"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"juchu/internal/infrastructure/persistence/sqlite/model"
	"juchu/internal/ports"
)

func setupOrderRepository(t *testing.T) (*OrderRepository, *gorm.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "juchu.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.Order{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	if err := db.Exec(model.FiscalYearOrderViewDDL).Error; err != nil {
		t.Fatalf("create view: %v", err)
	}
	return NewOrderRepository(db), db
}

func sampleOrder(orderID string, productCode string, timestamp string) ports.OrderCreate {
	return ports.OrderCreate{
		OrderID:      orderID,
		OrderDate:    "2024-05-01",
		SalesDept:    "osaka",
		CustomerName: "Acme Trading",
		CustomerID:   "C-100",
		ProductCode:  productCode,
		ProductName:  "Widget",
		Quantity:     3,
		UnitPrice:    1200,
		TotalPrice:   3600,
		Currency:     "JPY",
		DeliveryDate: "2024-05-20",
		OrderStatus:  "",
		JPYValue:     3600,
		Timestamp:    timestamp,
	}
}

func TestInsertOrdersSkipsDuplicateTuples(t *testing.T) {
	repo, db := setupOrderRepository(t)
	ctx := context.Background()

	batch := []ports.OrderCreate{
		sampleOrder("SO-1", "P-1", "2024-05-01T09:00:00Z"),
		sampleOrder("SO-1", "P-2", "2024-05-01T09:00:00Z"),
		sampleOrder("SO-2", "P-1", "2024-05-01T10:00:00Z"),
	}

	inserted, err := repo.InsertOrders(ctx, batch)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if inserted != 3 {
		t.Fatalf("first insert = %d rows, want 3", inserted)
	}

	inserted, err = repo.InsertOrders(ctx, batch)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("second insert = %d rows, want 0", inserted)
	}

	var count int64
	if err := db.Model(&model.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 3 {
		t.Fatalf("stored rows = %d, want 3", count)
	}
}

func TestInsertOrdersDistinguishesChangedTuples(t *testing.T) {
	repo, _ := setupOrderRepository(t)
	ctx := context.Background()

	first := sampleOrder("SO-1", "P-1", "2024-05-01T09:00:00Z")
	if _, err := repo.InsertOrders(ctx, []ports.OrderCreate{first}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Same order line at a later capture time is a new row, not a dup.
	second := first
	second.Timestamp = "2024-05-02T09:00:00Z"
	inserted, err := repo.InsertOrders(ctx, []ports.OrderCreate{second})
	if err != nil {
		t.Fatalf("insert changed tuple: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("insert changed tuple = %d rows, want 1", inserted)
	}
}

func TestApplyCountableReportsDelta(t *testing.T) {
	repo, _ := setupOrderRepository(t)
	ctx := context.Background()

	if _, err := repo.InsertOrders(ctx, []ports.OrderCreate{
		sampleOrder("SO-1", "P-1", "2024-05-01T09:00:00Z"),
		sampleOrder("SO-2", "P-1", "2024-05-01T09:00:00Z"),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	states, err := repo.ListOrderStates(ctx)
	if err != nil {
		t.Fatalf("list states: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("states = %d, want 2", len(states))
	}

	changed, err := repo.ApplyCountable(ctx, []uint64{states[0].RowID})
	if err != nil {
		t.Fatalf("apply countable: %v", err)
	}
	if changed != 1 {
		t.Fatalf("changed = %d, want 1", changed)
	}

	// Already in the target state: applying again touches nothing.
	changed, err = repo.ApplyCountable(ctx, []uint64{states[0].RowID})
	if err != nil {
		t.Fatalf("apply countable again: %v", err)
	}
	if changed != 0 {
		t.Fatalf("changed = %d, want 0", changed)
	}

	// Moving the flag to the other row changes both.
	changed, err = repo.ApplyCountable(ctx, []uint64{states[1].RowID})
	if err != nil {
		t.Fatalf("move countable: %v", err)
	}
	if changed != 2 {
		t.Fatalf("changed = %d, want 2", changed)
	}

	changed, err = repo.ApplyCountable(ctx, nil)
	if err != nil {
		t.Fatalf("clear countable: %v", err)
	}
	if changed != 1 {
		t.Fatalf("changed = %d, want 1", changed)
	}
}

func TestListFiscalYearOrdersFollowsView(t *testing.T) {
	repo, _ := setupOrderRepository(t)
	ctx := context.Background()

	inFY := sampleOrder("SO-1", "P-1", "2024-05-01T09:00:00Z")
	inFY.OrderDate = "2024-05-01"
	beforeApril := sampleOrder("SO-2", "P-1", "2024-02-01T09:00:00Z")
	beforeApril.OrderDate = "2024-02-01"

	if _, err := repo.InsertOrders(ctx, []ports.OrderCreate{inFY, beforeApril}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	states, err := repo.ListOrderStates(ctx)
	if err != nil {
		t.Fatalf("list states: %v", err)
	}
	ids := make([]uint64, 0, len(states))
	for _, st := range states {
		ids = append(ids, st.RowID)
	}
	if _, err := repo.ApplyCountable(ctx, ids); err != nil {
		t.Fatalf("apply countable: %v", err)
	}

	rows, err := repo.ListFiscalYearOrders(ctx, "2024")
	if err != nil {
		t.Fatalf("list fiscal year: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("fiscal year 2024 rows = %d, want 1", len(rows))
	}
	if rows[0].OrderID != "SO-1" || rows[0].FiscalYear != "2024" {
		t.Fatalf("unexpected row: %+v", rows[0])
	}

	// A February order belongs to the fiscal year that started the
	// previous April.
	rows, err = repo.ListFiscalYearOrders(ctx, "2023")
	if err != nil {
		t.Fatalf("list fiscal year: %v", err)
	}
	if len(rows) != 1 || rows[0].OrderID != "SO-2" {
		t.Fatalf("fiscal year 2023 rows = %+v, want SO-2", rows)
	}

	// Non-countable rows stay out of the view.
	if _, err := repo.ApplyCountable(ctx, nil); err != nil {
		t.Fatalf("clear countable: %v", err)
	}
	rows, err = repo.ListFiscalYearOrders(ctx, "2024")
	if err != nil {
		t.Fatalf("list fiscal year: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("fiscal year 2024 rows = %d, want 0", len(rows))
	}
}
