package tonclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Giorgio223/ton-pvp-app/pkg/amount"
)

const transactionsFixture = `{
  "transactions": [
    {"hash": "old", "lt": "100", "in_msg": {"source": "0:aa", "value": "1000000000"}},
    {"hash": "h1", "lt": "101", "in_msg": {"source": "0:aa", "value": "1500000000",
      "message_content": {"decoded": {"type": "text_comment", "comment": "tag1"}}}},
    {"hash": "ext", "lt": "102", "in_msg": {"source": "", "value": "0"}},
    {"hash": "out", "lt": "103", "in_msg": null},
    {"hash": "bounce", "lt": "104", "in_msg": {"source": "0:bb", "value": "5", "bounced": true}},
    {"hash": "h2", "lt": "105", "in_msg": {"source": "0:cc", "value": "7",
      "message_content": {"decoded": {"type": "binary_comment", "comment": "ignored"}}}}
  ]
}`

func TestIncomingTransfers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/transactions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("account") != "EQwallet" || q.Get("start_lt") != "101" || q.Get("limit") != "50" || q.Get("sort") != "asc" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(transactionsFixture))
	}))
	defer srv.Close()

	transfers, scanned, err := NewIndexer(Config{BaseURL: srv.URL}, "EQwallet").IncomingTransfers(context.Background(), 100, 50)
	if err != nil {
		t.Fatalf("IncomingTransfers: %v", err)
	}
	if scanned != 105 {
		t.Fatalf("scanned = %d, want 105", scanned)
	}
	if len(transfers) != 2 {
		t.Fatalf("transfers = %+v", transfers)
	}
	first := transfers[0]
	if first.Hash != "h1" || first.LogicalTime != 101 || first.Memo != "tag1" || !first.Amount.Equal(amount.MustParse("1.5")) {
		t.Fatalf("first = %+v", first)
	}
	if transfers[1].Hash != "h2" || transfers[1].Memo != "" {
		t.Fatalf("second = %+v", transfers[1])
	}
}

func TestIncomingTransfers_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limit"}`))
	}))
	defer srv.Close()

	if _, _, err := NewIndexer(Config{BaseURL: srv.URL}, "EQwallet").IncomingTransfers(context.Background(), 0, 10); err == nil {
		t.Fatal("expected error")
	}
}

func TestIncomingTransfers_FilteredPageReportsScanned(t *testing.T) {
	var txs []string
	for lt := 1; lt <= 100; lt++ {
		txs = append(txs, fmt.Sprintf(`{"hash": "ext%d", "lt": "%d", "in_msg": {"source": "", "value": "0"}}`, lt, lt))
	}
	body := `{"transactions": [` + strings.Join(txs, ",") + `]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	transfers, scanned, err := NewIndexer(Config{BaseURL: srv.URL}, "EQwallet").IncomingTransfers(context.Background(), 0, 100)
	if err != nil {
		t.Fatalf("IncomingTransfers: %v", err)
	}
	if len(transfers) != 0 {
		t.Fatalf("transfers = %+v", transfers)
	}
	if scanned != 100 {
		t.Fatalf("scanned = %d, want 100", scanned)
	}
}
