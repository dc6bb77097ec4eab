package model

// FiscalYearOrderViewDDL (re)creates the read-only projection the exporter
// queries: countable rows with a fiscal-year label computed from the order
// date (fiscal years start in April and are labeled by their first
// calendar year).
const FiscalYearOrderViewDDL = `
CREATE VIEW IF NOT EXISTS order_fiscal_year AS
SELECT
    order_id,
    order_date,
    sales_dept,
    customer_name,
    customer_id,
    product_code,
    product_name,
    quantity,
    unit_price,
    total_price,
    currency,
    delivery_date,
    order_status,
    jpy_value,
    timestamp,
    CASE
        WHEN CAST(strftime('%m', order_date) AS INTEGER) >= 4
            THEN strftime('%Y', order_date)
        ELSE CAST(CAST(strftime('%Y', order_date) AS INTEGER) - 1 AS TEXT)
    END AS fiscal_year
FROM orders
WHERE is_countable = 1
`

// FiscalYearOrder maps one row of the order_fiscal_year view.
type FiscalYearOrder struct {
	OrderID      string  `gorm:"column:order_id"`
	OrderDate    string  `gorm:"column:order_date"`
	SalesDept    string  `gorm:"column:sales_dept"`
	CustomerName string  `gorm:"column:customer_name"`
	CustomerID   string  `gorm:"column:customer_id"`
	ProductCode  string  `gorm:"column:product_code"`
	ProductName  string  `gorm:"column:product_name"`
	Quantity     int64   `gorm:"column:quantity"`
	UnitPrice    float64 `gorm:"column:unit_price"`
	TotalPrice   float64 `gorm:"column:total_price"`
	Currency     string  `gorm:"column:currency"`
	DeliveryDate string  `gorm:"column:delivery_date"`
	OrderStatus  string  `gorm:"column:order_status"`
	JPYValue     float64 `gorm:"column:jpy_value"`
	Timestamp    string  `gorm:"column:timestamp"`
	FiscalYear   string  `gorm:"column:fiscal_year"`
}

func (FiscalYearOrder) TableName() string {
	return "order_fiscal_year"
}
