package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"juchu/internal/errs"
	"juchu/internal/infrastructure/persistence/sqlite/model"
	"juchu/internal/ports"
)

type OrderRepository struct {
	db *gorm.DB
}

var _ ports.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// InsertOrders writes the batch in one statement. The composite unique
// index over all business columns turns duplicate tuples into no-ops, so
// RowsAffected is the number of genuinely new rows.
func (r *OrderRepository) InsertOrders(ctx context.Context, orders []ports.OrderCreate) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 {
		return 0, nil
	}

	rows := make([]model.Order, 0, len(orders))
	for _, in := range orders {
		rows = append(rows, model.Order{
			OrderID:      in.OrderID,
			OrderDate:    in.OrderDate,
			SalesDept:    in.SalesDept,
			CustomerName: in.CustomerName,
			CustomerID:   in.CustomerID,
			ProductCode:  in.ProductCode,
			ProductName:  in.ProductName,
			Quantity:     in.Quantity,
			UnitPrice:    in.UnitPrice,
			TotalPrice:   in.TotalPrice,
			Currency:     in.Currency,
			DeliveryDate: in.DeliveryDate,
			OrderStatus:  in.OrderStatus,
			JPYValue:     in.JPYValue,
			Timestamp:    in.Timestamp,
		})
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if result.Error != nil {
		return 0, errs.Wrap(result.Error, "insert order batch")
	}
	return result.RowsAffected, nil
}

func (r *OrderRepository) ListOrderStates(ctx context.Context) ([]ports.OrderState, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Order
	if err := db.
		Select("row_id", "order_id", "customer_id", "order_status", "timestamp", "is_countable").
		Order("row_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query order states")
	}

	states := make([]ports.OrderState, 0, len(rows))
	for _, row := range rows {
		states = append(states, ports.OrderState{
			RowID:       row.RowID,
			OrderID:     row.OrderID,
			CustomerID:  row.CustomerID,
			OrderStatus: row.OrderStatus,
			Timestamp:   row.Timestamp,
			IsCountable: row.IsCountable,
		})
	}
	return states, nil
}

// ApplyCountable flips is_countable so that exactly the given rows carry
// it. Only rows whose flag actually changes are touched, so the combined
// RowsAffected is the reclassification delta.
func (r *OrderRepository) ApplyCountable(ctx context.Context, countableRowIDs []uint64) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var changed int64

	if len(countableRowIDs) == 0 {
		result := db.Model(&model.Order{}).
			Where("is_countable = ?", true).
			Update("is_countable", false)
		if result.Error != nil {
			return 0, errs.Wrap(result.Error, "clear countable flags")
		}
		return result.RowsAffected, nil
	}

	set := db.Model(&model.Order{}).
		Where("row_id IN ? AND is_countable = ?", countableRowIDs, false).
		Update("is_countable", true)
	if set.Error != nil {
		return 0, errs.Wrap(set.Error, "set countable flags")
	}
	changed += set.RowsAffected

	clear := db.Model(&model.Order{}).
		Where("row_id NOT IN ? AND is_countable = ?", countableRowIDs, true).
		Update("is_countable", false)
	if clear.Error != nil {
		return 0, errs.Wrap(clear.Error, "clear countable flags")
	}
	changed += clear.RowsAffected

	return changed, nil
}

func (r *OrderRepository) ListFiscalYearOrders(ctx context.Context, fiscalYear string) ([]ports.FiscalYearOrder, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.FiscalYearOrder
	if err := db.
		Where("fiscal_year = ?", fiscalYear).
		Order("order_date asc, order_id asc, timestamp asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query fiscal year view")
	}

	items := make([]ports.FiscalYearOrder, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.FiscalYearOrder{
			OrderID:      row.OrderID,
			OrderDate:    row.OrderDate,
			SalesDept:    row.SalesDept,
			CustomerName: row.CustomerName,
			CustomerID:   row.CustomerID,
			ProductCode:  row.ProductCode,
			ProductName:  row.ProductName,
			Quantity:     row.Quantity,
			UnitPrice:    row.UnitPrice,
			TotalPrice:   row.TotalPrice,
			Currency:     row.Currency,
			DeliveryDate: row.DeliveryDate,
			OrderStatus:  row.OrderStatus,
			JPYValue:     row.JPYValue,
			Timestamp:    row.Timestamp,
			FiscalYear:   row.FiscalYear,
		})
	}
	return items, nil
}
