package orders

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"juchu/internal/bootstrap/logging"
	"juchu/internal/domain/order"
	"juchu/internal/errs"
	"juchu/internal/ports"
)

const exportCacheTTL = 5 * time.Minute

// invalidTimestampLiteral is what the consuming system expects for an
// event timestamp that is present but not a valid instant.
const invalidTimestampLiteral = "Invalid Date"

// exportHeader is the wire-contract field order plus the view's label.
var exportHeader = []string{
	"order_id",
	"order_date",
	"sales_dept",
	"customer_name",
	"customer_id",
	"product_code",
	"product_name",
	"quantity",
	"unit_price",
	"total_price",
	"currency",
	"delivery_date",
	"order_status",
	"jpy_value",
	"timestamp",
	"fiscal_year",
}

type ExportResult struct {
	FiscalYear string
	CSV        []byte
}

// ExportCurrentFiscalYear renders the countable orders of the fiscal year
// containing the server's current date as CSV. Returns ErrNoFiscalYearData
// when the view has no row for the computed label.
func (s *Service) ExportCurrentFiscalYear(ctx context.Context) (ExportResult, error) {
	label := order.FiscalYearLabel(s.now())
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.orders"),
		slog.String("fiscal_year", label),
	)

	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, label)
		if err != nil {
			logging.Warn(logCtx, "export cache read failed", slog.Any("err", errs.Loggable(err)))
		} else if found {
			logging.Info(logCtx, "export served from cache")
			return ExportResult{FiscalYear: label, CSV: []byte(cached)}, nil
		}
	}

	rows, err := s.repo.ListFiscalYearOrders(ctx, label)
	if err != nil {
		logging.Error(logCtx, "fiscal year query failed", slog.Any("err", errs.Loggable(err)))
		return ExportResult{}, errs.Wrap(err, "query fiscal year orders")
	}
	if len(rows) == 0 {
		return ExportResult{}, ErrNoFiscalYearData
	}

	payload, err := renderExportCSV(rows)
	if err != nil {
		return ExportResult{}, errs.Wrap(err, "render export csv")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, label, string(payload), exportCacheTTL); err != nil {
			logging.Warn(logCtx, "export cache write failed", slog.Any("err", errs.Loggable(err)))
		}
	}

	logging.Info(logCtx, "export rendered", slog.Int("rows", len(rows)))
	return ExportResult{FiscalYear: label, CSV: payload}, nil
}

func renderExportCSV(rows []ports.FiscalYearOrder) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, errs.Wrap(err, "write csv header")
	}
	for _, row := range rows {
		if err := w.Write(exportFields(row)); err != nil {
			return nil, errs.Wrap(err, "write csv record")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errs.Wrap(err, "flush csv")
	}
	return buf.Bytes(), nil
}

func exportFields(row ports.FiscalYearOrder) []string {
	return []string{
		row.OrderID,
		formatExportDate(row.OrderDate),
		row.SalesDept,
		row.CustomerName,
		row.CustomerID,
		row.ProductCode,
		row.ProductName,
		strconv.FormatInt(row.Quantity, 10),
		formatExportNumber(row.UnitPrice),
		formatExportNumber(row.TotalPrice),
		row.Currency,
		formatExportDate(row.DeliveryDate),
		row.OrderStatus,
		formatExportNumber(row.JPYValue),
		formatExportTimestamp(row.Timestamp),
		row.FiscalYear,
	}
}

// formatExportDate renders date fields as YYYY-MM-DD; text that does not
// parse passes through untouched.
func formatExportDate(value string) string {
	if t, ok := order.ParseEventTime(value); ok {
		return t.Format("2006-01-02")
	}
	return value
}

// formatExportTimestamp renders the event timestamp in the consumer's
// mixed shape: unseparated date segment, colon-separated time segment.
func formatExportTimestamp(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	if t, ok := order.ParseEventTime(value); ok {
		return t.Format("2006010215:04:05")
	}
	return invalidTimestampLiteral
}

func formatExportNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
