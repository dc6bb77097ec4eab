package orders

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"juchu/internal/bootstrap/logging"
	"juchu/internal/domain/order"
	"juchu/internal/errs"
	"juchu/internal/ports"
)

var (
	// ErrEmptyBatch marks an upload with no records; no store work happens.
	ErrEmptyBatch = errors.New("upload batch is empty")
	// ErrNoFiscalYearData marks an export with zero matching rows. This is
	// a "no data" condition, not a failure.
	ErrNoFiscalYearData = errors.New("no orders in the current fiscal year")
)

type Service struct {
	repo  ports.OrderRepository
	uow   ports.UnitOfWork
	cache ports.Cache
	now   func() time.Time
}

// NewService wires the order usecases with repository, transaction
// boundary and the export cache.
func NewService(repo ports.OrderRepository, uow ports.UnitOfWork, cache ports.Cache) *Service {
	return &Service{
		repo:  repo,
		uow:   uow,
		cache: cache,
		now:   time.Now,
	}
}

type UploadInput struct {
	Records []order.Record
}

type UploadResult struct {
	BatchID      string
	Received     int
	Inserted     int64
	Reclassified int64
}

// UploadOrders runs the ingestion pipeline: validate the batch, then in
// one transaction insert with dedup and recompute countability over the
// whole table. Any store error rolls the whole batch back.
func (s *Service) UploadOrders(ctx context.Context, input UploadInput) (UploadResult, error) {
	if len(input.Records) == 0 {
		return UploadResult{}, ErrEmptyBatch
	}
	for i, rec := range input.Records {
		if err := rec.Validate(); err != nil {
			return UploadResult{}, errs.Wrapf(err, "record %d", i)
		}
	}

	batchID := uuid.NewString()
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.orders"),
		slog.String("batch_id", batchID),
	)
	logging.Info(logCtx, "upload started", slog.Int("records", len(input.Records)))

	var inserted, reclassified int64
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		n, err := s.repo.InsertOrders(txCtx, toCreates(input.Records))
		if err != nil {
			return errs.Wrap(err, "insert batch")
		}
		inserted = n

		states, err := s.repo.ListOrderStates(txCtx)
		if err != nil {
			return errs.Wrap(err, "list order states")
		}

		countable := order.Classify(toClassifyRows(states))

		m, err := s.repo.ApplyCountable(txCtx, countable)
		if err != nil {
			return errs.Wrap(err, "apply countable flags")
		}
		reclassified = m
		return nil
	})
	if err != nil {
		logging.Error(logCtx, "upload rolled back", slog.Any("err", errs.Loggable(err)))
		return UploadResult{}, errs.Wrap(err, "upload orders")
	}

	if s.cache != nil {
		// Cached exports may now be stale for any fiscal year the batch
		// touched; dropping them all is cheaper than working out which.
		if err := s.cache.Clear(ctx); err != nil {
			logging.Warn(logCtx, "export cache clear failed", slog.Any("err", errs.Loggable(err)))
		}
	}

	logging.Info(logCtx, "upload committed",
		slog.Int64("inserted", inserted),
		slog.Int64("reclassified", reclassified),
	)

	return UploadResult{
		BatchID:      batchID,
		Received:     len(input.Records),
		Inserted:     inserted,
		Reclassified: reclassified,
	}, nil
}

func toCreates(records []order.Record) []ports.OrderCreate {
	out := make([]ports.OrderCreate, 0, len(records))
	for _, r := range records {
		out = append(out, ports.OrderCreate{
			OrderID:      r.OrderID,
			OrderDate:    r.OrderDate,
			SalesDept:    r.SalesDept,
			CustomerName: r.CustomerName,
			CustomerID:   r.CustomerID,
			ProductCode:  r.ProductCode,
			ProductName:  r.ProductName,
			Quantity:     r.Quantity,
			UnitPrice:    r.UnitPrice,
			TotalPrice:   r.TotalPrice,
			Currency:     r.Currency,
			DeliveryDate: r.DeliveryDate,
			OrderStatus:  r.OrderStatus,
			JPYValue:     r.JPYValue,
			Timestamp:    r.Timestamp,
		})
	}
	return out
}

func toClassifyRows(states []ports.OrderState) []order.Row {
	out := make([]order.Row, 0, len(states))
	for _, st := range states {
		out = append(out, order.Row{
			RowID:      st.RowID,
			OrderID:    st.OrderID,
			CustomerID: st.CustomerID,
			Status:     st.OrderStatus,
			Timestamp:  st.Timestamp,
		})
	}
	return out
}
