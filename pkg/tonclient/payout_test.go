package tonclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/Giorgio223/ton-pvp-app/pkg/amount"
	"github.com/Giorgio223/ton-pvp-app/pkg/service"
)

func TestPayout_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transfer" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get(apiKeyHeader); got != "secret" {
			t.Errorf("api key = %q", got)
		}
		if got := r.Header.Get("Idempotency-Key"); got != "key-1" {
			t.Errorf("idempotency key = %q", got)
		}
		var body transferRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Amount != "2500000000" || body.Comment != "withdrawal:7" || body.Destination != "EQdest" {
			t.Errorf("body = %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tx_hash":"abc123"}`))
	}))
	defer srv.Close()

	client := NewPayoutClient(Config{BaseURL: srv.URL, APIKey: "secret"})
	receipt, err := client.Payout(context.Background(), service.PayoutRequest{
		Destination:    "EQdest",
		Amount:         amount.MustParse("2.5"),
		Memo:           "withdrawal:7",
		IdempotencyKey: "key-1",
	})
	if err != nil {
		t.Fatalf("Payout: %v", err)
	}
	if receipt.Reference != "abc123" {
		t.Fatalf("reference = %q", receipt.Reference)
	}
}

func TestPayout_ErrorClassification(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		notSent bool
	}{
		{"rejected", http.StatusUnprocessableEntity, `{"message":"insufficient hot wallet balance"}`, true},
		{"bad request", http.StatusBadRequest, `{"error":"bad destination"}`, true},
		{"server error", http.StatusInternalServerError, `{"error":"panic"}`, false},
		{"gateway timeout", http.StatusGatewayTimeout, ``, false},
		{"request timeout", http.StatusRequestTimeout, ``, false},
		{"idempotency conflict", http.StatusConflict, `{"error":"request with this key in progress"}`, false},
		{"ok without hash", http.StatusOK, `{}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewPayoutClient(Config{BaseURL: srv.URL}).Payout(context.Background(), service.PayoutRequest{Amount: amount.MustParse("1")})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, service.ErrPayoutNotSent); got != tc.notSent {
				t.Fatalf("not sent = %v, want %v (%v)", got, tc.notSent, err)
			}
		})
	}
}

func TestPayout_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewPayoutClient(Config{BaseURL: srv.URL}).Payout(ctx, service.PayoutRequest{Amount: amount.MustParse("1")})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, service.ErrPayoutNotSent) {
		t.Fatal("timeout must not be reported as not sent")
	}
}
