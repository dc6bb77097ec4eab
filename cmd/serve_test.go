package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"juchu/internal/usecase/orders"
)

type stubOrdersService struct {
	uploadCalled bool
	uploadInput  orders.UploadInput
	uploadResult orders.UploadResult
	uploadErr    error

	exportCalled bool
	exportResult orders.ExportResult
	exportErr    error
}

func (s *stubOrdersService) UploadOrders(_ context.Context, input orders.UploadInput) (orders.UploadResult, error) {
	s.uploadCalled = true
	s.uploadInput = input
	if s.uploadErr != nil {
		return orders.UploadResult{}, s.uploadErr
	}
	return s.uploadResult, nil
}

func (s *stubOrdersService) ExportCurrentFiscalYear(context.Context) (orders.ExportResult, error) {
	s.exportCalled = true
	if s.exportErr != nil {
		return orders.ExportResult{}, s.exportErr
	}
	return s.exportResult, nil
}

func postUpload(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/orders/upload", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestUploadHandlerSuccess(t *testing.T) {
	t.Parallel()

	svc := &stubOrdersService{
		uploadResult: orders.UploadResult{
			BatchID:      "batch-1",
			Received:     2,
			Inserted:     2,
			Reclassified: 2,
		},
	}
	handler := newOrdersAPIRouter(svc)

	body := `{"data":[
		{"order_id":"SO-1","order_date":"2024-05-01","sales_dept":"osaka","customer_name":"Acme","customer_id":"C-1","product_code":"P-1","product_name":"Widget","quantity":3,"unit_price":1200,"total_price":3600,"currency":"JPY","delivery_date":"2024-05-20","order_status":"","jpy_value":3600,"timestamp":"2024-05-01T09:00:00Z"},
		{"order_id":"SO-2","order_date":"2024-05-01","sales_dept":"osaka","customer_name":"Acme","customer_id":"C-1","product_code":"P-2","product_name":"Gadget","quantity":1,"unit_price":500,"total_price":500,"currency":"JPY","delivery_date":"2024-05-21","order_status":"changed","jpy_value":500,"timestamp":"2024-05-01T10:00:00Z"}
	]}`
	resp := postUpload(t, handler, body)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", resp.Code, resp.Body.String())
	}
	if !svc.uploadCalled {
		t.Fatal("service not called")
	}
	if len(svc.uploadInput.Records) != 2 {
		t.Fatalf("records passed = %d, want 2", len(svc.uploadInput.Records))
	}
	if svc.uploadInput.Records[1].OrderStatus != "changed" {
		t.Fatalf("record status = %q, want changed", svc.uploadInput.Records[1].OrderStatus)
	}

	var out map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["inserted"].(float64) != 2 || out["reclassified"].(float64) != 2 {
		t.Fatalf("response = %v, want inserted/reclassified 2", out)
	}
}

func TestUploadHandlerRejectsBadBodies(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing data":   `{}`,
		"empty data":     `{"data":[]}`,
		"not a list":     `{"data":{"order_id":"SO-1"}}`,
		"unknown field":  `{"data":[{"order_id":"SO-1","surprise":true}]}`,
		"malformed json": `{"data":[`,
	}
	for name, body := range cases {
		svc := &stubOrdersService{}
		resp := postUpload(t, newOrdersAPIRouter(svc), body)

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400; body=%s", name, resp.Code, resp.Body.String())
		}
		if svc.uploadCalled {
			t.Fatalf("%s: service called for invalid input", name)
		}
	}
}

func TestUploadHandlerStoreFailureIsGeneric(t *testing.T) {
	t.Parallel()

	svc := &stubOrdersService{uploadErr: errors.New("sqlite: disk I/O error at offset 42")}
	resp := postUpload(t, newOrdersAPIRouter(svc), `{"data":[{"order_id":"SO-1"}]}`)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "offset 42") {
		t.Fatalf("internal detail leaked to caller: %s", resp.Body.String())
	}
}

func TestExportHandlerServesCSV(t *testing.T) {
	t.Parallel()

	svc := &stubOrdersService{
		exportResult: orders.ExportResult{
			FiscalYear: "2024",
			CSV:        []byte("order_id,order_date\nSO-1,2024-05-01\n"),
		},
	}
	handler := newOrdersAPIRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/export-current-fiscal-year", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q, want text/csv", ct)
	}
	if !strings.Contains(resp.Body.String(), "SO-1,2024-05-01") {
		t.Fatalf("body = %q, want csv rows", resp.Body.String())
	}
}

func TestExportHandlerNoData(t *testing.T) {
	t.Parallel()

	svc := &stubOrdersService{exportErr: orders.ErrNoFiscalYearData}
	handler := newOrdersAPIRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/export-current-fiscal-year", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q, want application/json error envelope", ct)
	}
}

func TestExportHandlerStoreFailure(t *testing.T) {
	t.Parallel()

	svc := &stubOrdersService{exportErr: errors.New("view query failed")}
	handler := newOrdersAPIRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/export-current-fiscal-year", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.Code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	handler := newOrdersAPIRouter(&stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
}
