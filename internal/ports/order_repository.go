package ports

import "context"

// OrderCreate carries one order line for insertion. Dates and the event
// timestamp are kept as the wire text; the store never reinterprets them.
type OrderCreate struct {
	OrderID      string
	OrderDate    string
	SalesDept    string
	CustomerName string
	CustomerID   string
	ProductCode  string
	ProductName  string
	Quantity     int64
	UnitPrice    float64
	TotalPrice   float64
	Currency     string
	DeliveryDate string
	OrderStatus  string
	JPYValue     float64
	Timestamp    string
}

// OrderState is the slice of a stored row that countability depends on.
type OrderState struct {
	RowID       uint64
	OrderID     string
	CustomerID  string
	OrderStatus string
	Timestamp   string
	IsCountable bool
}

// FiscalYearOrder is one countable row as projected by the fiscal-year
// view, including the computed label column.
type FiscalYearOrder struct {
	OrderID      string
	OrderDate    string
	SalesDept    string
	CustomerName string
	CustomerID   string
	ProductCode  string
	ProductName  string
	Quantity     int64
	UnitPrice    float64
	TotalPrice   float64
	Currency     string
	DeliveryDate string
	OrderStatus  string
	JPYValue     float64
	Timestamp    string
	FiscalYear   string
}

type OrderRepository interface {
	// InsertOrders inserts the batch in one statement with
	// conflict-do-nothing over the composite business key and reports how
	// many rows were actually inserted.
	InsertOrders(ctx context.Context, orders []OrderCreate) (int64, error)
	// ListOrderStates returns every stored row's classification slice.
	ListOrderStates(ctx context.Context) ([]OrderState, error)
	// ApplyCountable makes exactly the given rows countable and reports
	// how many rows changed either way.
	ApplyCountable(ctx context.Context, countableRowIDs []uint64) (int64, error)
	// ListFiscalYearOrders reads the fiscal-year view for one label.
	ListFiscalYearOrders(ctx context.Context, fiscalYear string) ([]FiscalYearOrder, error)
}
