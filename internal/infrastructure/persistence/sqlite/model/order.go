package model

// Order is one stored order line. Every business column joins the
// uk_order_tuple unique index: two rows are duplicates only when the full
// tuple matches, and the dedup insert relies on that constraint.
// is_countable is the only mutable column.
type Order struct {
	RowID        uint64  `gorm:"column:row_id;primaryKey;autoIncrement"`
	OrderID      string  `gorm:"column:order_id;type:text;not null;index;uniqueIndex:uk_order_tuple"`
	OrderDate    string  `gorm:"column:order_date;type:text;not null;uniqueIndex:uk_order_tuple"`
	SalesDept    string  `gorm:"column:sales_dept;type:text;not null;uniqueIndex:uk_order_tuple"`
	CustomerName string  `gorm:"column:customer_name;type:text;not null;uniqueIndex:uk_order_tuple"`
	CustomerID   string  `gorm:"column:customer_id;type:text;not null;uniqueIndex:uk_order_tuple"`
	ProductCode  string  `gorm:"column:product_code;type:text;not null;uniqueIndex:uk_order_tuple"`
	ProductName  string  `gorm:"column:product_name;type:text;not null;uniqueIndex:uk_order_tuple"`
	Quantity     int64   `gorm:"column:quantity;not null;uniqueIndex:uk_order_tuple"`
	UnitPrice    float64 `gorm:"column:unit_price;not null;uniqueIndex:uk_order_tuple"`
	TotalPrice   float64 `gorm:"column:total_price;not null;uniqueIndex:uk_order_tuple"`
	Currency     string  `gorm:"column:currency;type:text;not null;uniqueIndex:uk_order_tuple"`
	DeliveryDate string  `gorm:"column:delivery_date;type:text;not null;uniqueIndex:uk_order_tuple"`
	OrderStatus  string  `gorm:"column:order_status;type:text;not null;uniqueIndex:uk_order_tuple"`
	JPYValue     float64 `gorm:"column:jpy_value;not null;uniqueIndex:uk_order_tuple"`
	Timestamp    string  `gorm:"column:timestamp;type:text;not null;uniqueIndex:uk_order_tuple"`
	IsCountable  bool    `gorm:"column:is_countable;not null;default:0;index"`
}

func (Order) TableName() string {
	return "orders"
}
