package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hisab/internal/cache"
	"hisab/internal/core"
)

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingObserver) ObserveUpstream(op string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, fmt.Sprintf("%s:%d", op, status))
}

func newTestClient(t *testing.T, h http.Handler) (*Client, *recordingObserver) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	obs := &recordingObserver{}
	c := NewClient(Options{
		BaseURL:          srv.URL + "/",
		TransactionCache: cache.NewLRUCache[[]core.Transaction](10, time.Minute),
		DebtCache:        cache.NewLRUCache[[]core.DebtLoanItem](10, time.Minute),
		Observer:         obs,
	})
	return c, obs
}

func TestListTransactionsPaginatesAndCaches(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+transactionsPath, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Header().Set("X-WP-TotalPages", "2")
		var batch []map[string]any
		n := perPage
		if page == 2 {
			n = 3
		}
		for i := 0; i < n; i++ {
			batch = append(batch, map[string]any{
				"id":  page*1000 + i,
				"acf": map[string]any{"amount": "10", "type": "income", "date": "2025-01-01"},
			})
		}
		json.NewEncoder(w).Encode(batch)
	})
	c, obs := newTestClient(t, mux)
	s := Session{UserID: "7", Token: "tok"}
	ctx := context.Background()

	txs, err := c.ListTransactions(ctx, s)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != perPage+3 {
		t.Fatalf("got %d transactions, want %d", len(txs), perPage+3)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 page requests, got %d", calls.Load())
	}

	if _, err := c.ListTransactions(ctx, s); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("second list should be served from cache, calls=%d", calls.Load())
	}
	if len(obs.ops) != 2 || obs.ops[0] != "list_transactions:200" {
		t.Errorf("observer ops = %v", obs.ops)
	}
}

func TestListTransactionsWithoutTotalPagesHeader(t *testing.T) {
	tests := []struct {
		name      string
		pageSizes []int
		want      int
		calls     int32
	}{
		{"short last page", []int{perPage, perPage, 40}, 2*perPage + 40, 3},
		{"full last page", []int{perPage}, perPage, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			mux := http.NewServeMux()
			mux.HandleFunc("GET "+transactionsPath, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				page, _ := strconv.Atoi(r.URL.Query().Get("page"))
				if page > len(tt.pageSizes) {
					w.WriteHeader(http.StatusBadRequest)
					w.Write([]byte(`{"code":"rest_post_invalid_page_number","message":"The page number requested is larger than the number of pages available."}`))
					return
				}
				batch := make([]map[string]any, 0, tt.pageSizes[page-1])
				for i := 0; i < tt.pageSizes[page-1]; i++ {
					batch = append(batch, map[string]any{"id": page*1000 + i, "acf": map[string]any{"amount": "1", "type": "expense"}})
				}
				json.NewEncoder(w).Encode(batch)
			})
			c, _ := newTestClient(t, mux)

			txs, err := c.ListTransactions(context.Background(), Session{UserID: "7", Token: "tok"})
			if err != nil {
				t.Fatalf("ListTransactions: %v", err)
			}
			if len(txs) != tt.want {
				t.Errorf("got %d transactions, want %d", len(txs), tt.want)
			}
			if calls.Load() != tt.calls {
				t.Errorf("page requests = %d, want %d", calls.Load(), tt.calls)
			}
		})
	}
}

func TestCreateInvalidatesCache(t *testing.T) {
	var lists atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+debtLoansPath, func(w http.ResponseWriter, r *http.Request) {
		lists.Add(1)
		w.Write([]byte(`[{"id":1,"acf":{"person_name":"Ram","amount":"100","type":"lent"}}]`))
	})
	mux.HandleFunc("POST "+debtLoansPath, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		acf := body["acf"].(map[string]any)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 2, "acf": acf})
	})
	mux.HandleFunc("POST "+debtLoansPath+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "2" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":"rest_post_invalid_id","message":"Invalid post ID."}`))
			return
		}
		w.Write([]byte(`{"id":2,"acf":{"person_name":"Sita","amount":"50","type":"borrowed","status":"paid"}}`))
	})
	c, _ := newTestClient(t, mux)
	s := Session{UserID: "1", Token: "tok"}
	ctx := context.Background()

	if _, err := c.ListDebtLoans(ctx, s); err != nil {
		t.Fatal(err)
	}
	created, err := c.CreateDebtLoan(ctx, s, core.DebtLoanItem{
		Person: "Sita", Amount: core.NewMoney(50, 0), Type: core.Borrowed, Date: core.NewDate(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("CreateDebtLoan: %v", err)
	}
	if created.ID != 2 || created.Status != core.Outstanding || created.Person != "Sita" {
		t.Errorf("created = %+v", created)
	}
	if _, err := c.ListDebtLoans(ctx, s); err != nil {
		t.Fatal(err)
	}
	if lists.Load() != 2 {
		t.Errorf("write should invalidate cache, lists=%d", lists.Load())
	}

	updated, err := c.UpdateDebtLoanStatus(ctx, s, 2, core.Paid)
	if err != nil || updated.Status != core.Paid {
		t.Fatalf("update = %+v, %v", updated, err)
	}
	if _, err := c.UpdateDebtLoanStatus(ctx, s, 9, core.Paid); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.UpdateDebtLoanStatus(ctx, s, 2, "lost"); !errors.Is(err, core.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestCreateTransactionValidates(t *testing.T) {
	c, obs := newTestClient(t, http.NotFoundHandler())
	_, err := c.CreateTransaction(context.Background(), Session{UserID: "1"}, core.Transaction{Type: core.Income})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if len(obs.ops) != 0 {
		t.Error("invalid input must not reach upstream")
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusInternalServerError, ErrUpstream},
		{http.StatusBadGateway, ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			err := c.DeleteTransaction(context.Background(), Session{UserID: "1", Token: "x"}, 5)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+tokenPath, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"code":"[jwt_auth] incorrect_password","message":"wrong password"}`))
			return
		}
		w.Write([]byte(`{"token":"abc","user_email":"a@example.com","user_nicename":"asha","user_display_name":"Asha"}`))
	})
	c, _ := newTestClient(t, mux)

	res, err := c.Login(context.Background(), "asha", "secret")
	if err != nil || res.Token != "abc" || res.DisplayName != "Asha" {
		t.Fatalf("login = %+v, %v", res, err)
	}
	if _, err := c.Login(context.Background(), "asha", "nope"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUpstreamUnavailable(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	if err := c.Ping(context.Background()); !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}
