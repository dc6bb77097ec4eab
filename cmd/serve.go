package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"juchu/internal/bootstrap"
	"juchu/internal/bootstrap/logging"
	"juchu/internal/domain/order"
	"juchu/internal/errs"
	"juchu/internal/usecase/orders"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the order ledger HTTP API",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *orders.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = app.Config.Server.Addr
		}

		// First boot on an empty DSN should serve, not 500.
		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		server := &http.Server{
			Addr:    addr,
			Handler: newOrdersAPIRouter(svc),
			BaseContext: func(net.Listener) context.Context {
				return ctx
			},
		}

		shutdownCtx, stop := signalContext(ctx)
		defer stop()

		serveErr := make(chan error, 1)
		go func() {
			serveErr <- server.ListenAndServe()
		}()

		logging.Info(ctx, "order api server started", slog.String("addr", addr))

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error(ctx, "order api server failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "serve order api")
			}
			return nil
		case <-shutdownCtx.Done():
		}

		logging.Info(ctx, "shutdown signal received")
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			return errs.Wrap(err, "shutdown order api server")
		}
		<-serveErr
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: server.addr from config)")
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// ordersAPIService is the slice of the usecase the transport needs.
type ordersAPIService interface {
	UploadOrders(context.Context, orders.UploadInput) (orders.UploadResult, error)
	ExportCurrentFiscalYear(context.Context) (orders.ExportResult, error)
}

type ordersAPIHandler struct {
	svc ordersAPIService
}

type uploadRequest struct {
	Data []order.Record `json:"data"`
}

type uploadResponse struct {
	Message      string `json:"message"`
	BatchID      string `json:"batch_id"`
	Received     int    `json:"received"`
	Inserted     int64  `json:"inserted"`
	Reclassified int64  `json:"reclassified"`
}

type apiErrorResponse struct {
	Error string `json:"error"`
}

func newOrdersAPIRouter(svc ordersAPIService) http.Handler {
	h := &ordersAPIHandler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogging)
	r.Use(middleware.Recoverer)

	r.Post("/api/orders/upload", h.handleUpload)
	r.Get("/api/orders/export-current-fiscal-year", h.handleExport)
	r.Get("/healthz", h.handleHealth)
	return r
}

// requestLogging seeds the request context with the chi request id so
// usecase logs correlate, and logs one line per request.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithAttrs(r.Context(), slog.String("request_id", middleware.GetReqID(r.Context())))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		logging.Info(ctx, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(started)),
		)
	})
}

func (h *ordersAPIHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "request body must be {\"data\": [<order record>...]}")
		return
	}
	if len(req.Data) == 0 {
		writeAPIError(w, http.StatusBadRequest, "data must be a non-empty list of order records")
		return
	}

	result, err := h.svc.UploadOrders(r.Context(), orders.UploadInput{Records: req.Data})
	if err != nil {
		if errors.Is(err, orders.ErrEmptyBatch) || errors.Is(err, order.ErrInvalidRecord) {
			writeAPIError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Detail went to the log inside the usecase; callers get a
		// uniform message.
		writeAPIError(w, http.StatusInternalServerError, "order upload failed")
		return
	}

	writeAPIJSON(w, http.StatusOK, uploadResponse{
		Message:      "upload completed",
		BatchID:      result.BatchID,
		Received:     result.Received,
		Inserted:     result.Inserted,
		Reclassified: result.Reclassified,
	})
}

func (h *ordersAPIHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ExportCurrentFiscalYear(r.Context())
	if err != nil {
		if errors.Is(err, orders.ErrNoFiscalYearData) {
			writeAPIError(w, http.StatusNotFound, "no orders in the current fiscal year")
			return
		}
		writeAPIError(w, http.StatusInternalServerError, "fiscal year export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=orders_fy%s.csv", result.FiscalYear))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.CSV)
}

func (h *ordersAPIHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeAPIJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeAPIJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeAPIJSON(w, status, apiErrorResponse{Error: message})
}
