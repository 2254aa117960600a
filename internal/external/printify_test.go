package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"printbridge/internal/types"
)

func TestPrintifyGetOrder_Success(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "5a96f649b2439217d070f507",
			"status": "in-production",
			"shipments": [{"number": "AB123456789CD"}]
		}`))
	}))
	defer server.Close()

	client := NewPrintifyClient(newVendorTestBase(t, "printify-test"), types.SecretString("pfy-key"), "8039")
	client.baseURL = server.URL

	order, err := client.GetOrder(context.Background(), "5a96f649b2439217d070f507")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if gotPath != "/shops/8039/orders/5a96f649b2439217d070f507.json" {
		t.Errorf("expected shop-scoped path, got %q", gotPath)
	}
	if gotAuth != "Bearer pfy-key" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if order.ID != "5a96f649b2439217d070f507" {
		t.Errorf("unexpected id %q", order.ID)
	}
	if order.Status != "in-production" {
		t.Errorf("unexpected status %q", order.Status)
	}
	if order.Tracking != "AB123456789CD" {
		t.Errorf("expected tracking from first shipment, got %q", order.Tracking)
	}
}

func TestPrintifyGetOrder_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewPrintifyClient(newVendorTestBase(t, "printify-test"), types.SecretString("pfy-key"), "8039")
	client.baseURL = server.URL

	_, err := client.GetOrder(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing order")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeNotFoundOrder {
		t.Errorf("expected %s, got %s", types.ErrCodeNotFoundOrder, appErr.Code)
	}
}

func TestPrintifyGetOrder_VendorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewPrintifyClient(newVendorTestBase(t, "printify-test"), types.SecretString("pfy-key"), "8039")
	client.baseURL = server.URL

	_, err := client.GetOrder(context.Background(), "42")
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeUpstreamVendor {
		t.Errorf("expected %s, got %s", types.ErrCodeUpstreamVendor, appErr.Code)
	}
}
