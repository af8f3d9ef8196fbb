package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	sig := Sign("shh", "order_1", "pay_1")
	if !VerifySignature("shh", "order_1", "pay_1", sig) {
		t.Fatalf("expected valid signature")
	}
	if VerifySignature("shh", "order_1", "pay_2", sig) {
		t.Fatalf("expected signature over other payment to fail")
	}
	if VerifySignature("other", "order_1", "pay_1", sig) {
		t.Fatalf("expected signature under other secret to fail")
	}
	if VerifySignature("shh", "order_1", "pay_1", "") {
		t.Fatalf("expected empty signature to fail")
	}
	if VerifySignature("", "order_1", "pay_1", Sign("", "order_1", "pay_1")) {
		t.Fatalf("expected empty secret to fail closed")
	}
}

func TestToMinorUnits(t *testing.T) {
	cases := map[float64]int64{499: 49900, 19.99: 1999, 0.1: 10, 250.5: 25050}
	for in, want := range cases {
		if got := ToMinorUnits(in); got != want {
			t.Fatalf("ToMinorUnits(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestNewRazorpayClientRequiresCredentials(t *testing.T) {
	if c := NewRazorpayClient("key", "", ""); c != nil {
		t.Fatalf("expected nil client without secret")
	}
	var c *RazorpayClient
	if _, err := c.CreateOrder(context.Background(), 1, "INR", "r"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if c.VerifySignature("a", "b", "c") {
		t.Fatalf("nil client must not verify")
	}
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/orders" {
			http.NotFound(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_key" || pass != "rzp_secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["amount"] != float64(49900) || body["currency"] != "INR" || body["receipt"] != "rcpt-1" {
			t.Errorf("unexpected body: %v", body)
		}
		_ = json.NewEncoder(w).Encode(Order{ID: "order_abc", Entity: "order", Amount: 49900, Currency: "INR", Receipt: "rcpt-1", Status: "created"})
	}))
	defer srv.Close()

	client := NewRazorpayClient("rzp_key", "rzp_secret", srv.URL)
	order, err := client.CreateOrder(context.Background(), 499, "INR", "rcpt-1")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != "order_abc" || order.Amount != 49900 {
		t.Fatalf("unexpected order: %+v", order)
	}
	if client.KeyID() != "rzp_key" {
		t.Fatalf("unexpected key id %q", client.KeyID())
	}
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount exceeds maximum"}}`))
	}))
	defer srv.Close()

	_, err := NewRazorpayClient("k", "s", srv.URL).CreateOrder(context.Background(), 1e9, "INR", "r")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "BAD_REQUEST_ERROR" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}
