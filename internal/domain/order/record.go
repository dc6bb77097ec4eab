package order

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ReservedCustomerPrefix marks internal and test accounts. Rows for such
// customers are never countable.
const ReservedCustomerPrefix = "#"

const (
	StatusCancelled = "cancelled"
	StatusChanged   = "changed"
)

var ErrInvalidRecord = errors.New("invalid order record")

// Record is the wire shape of one order line. Dates and the event
// timestamp stay as submitted text; they are parsed only where ordering or
// rendering needs an instant.
type Record struct {
	OrderID      string  `json:"order_id"`
	OrderDate    string  `json:"order_date"`
	SalesDept    string  `json:"sales_dept"`
	CustomerName string  `json:"customer_name"`
	CustomerID   string  `json:"customer_id"`
	ProductCode  string  `json:"product_code"`
	ProductName  string  `json:"product_name"`
	Quantity     int64   `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	TotalPrice   float64 `json:"total_price"`
	Currency     string  `json:"currency"`
	DeliveryDate string  `json:"delivery_date"`
	OrderStatus  string  `json:"order_status"`
	JPYValue     float64 `json:"jpy_value"`
	Timestamp    string  `json:"timestamp"`
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.OrderID) == "" {
		return fmt.Errorf("%w: order_id is required", ErrInvalidRecord)
	}
	return nil
}

// IsReservedCustomer reports whether the customer identifier carries the
// reserved sentinel prefix.
func IsReservedCustomer(customerID string) bool {
	return strings.HasPrefix(customerID, ReservedCustomerPrefix)
}

// StatusPriority ranks statuses for same-instant tie-breaks: a
// cancellation beats a change, a change beats a plain order.
func StatusPriority(status string) int {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusCancelled:
		return 2
	case StatusChanged:
		return 1
	default:
		return 0
	}
}

var eventTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseEventTime parses a stored event timestamp. The second return is
// false when the text does not describe an instant.
func ParseEventTime(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}

	for _, layout := range eventTimeLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
