// Package wordpress talks to the WordPress REST API that owns every
// transaction and debt record, and normalizes its loosely shaped responses
// into the strict core types.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"hisab/internal/cache"
	"hisab/internal/core"
	applog "hisab/internal/log"
)

const (
	transactionsPath = "/wp-json/wp/v2/transactions"
	debtLoansPath    = "/wp-json/wp/v2/debt-loans"
	usersMePath      = "/wp-json/wp/v2/users/me"
	tokenPath        = "/wp-json/jwt-auth/v1/token"

	perPage  = 100
	maxPages = 50
)

var (
	ErrUnauthorized = errors.New("wordpress: unauthorized")
	ErrNotFound     = errors.New("wordpress: not found")
	ErrUpstream     = errors.New("wordpress: upstream error")

	// errPageOutOfRange is WordPress answering a page past the last one.
	errPageOutOfRange = errors.New("wordpress: page out of range")
)

// Session identifies the caller. Token is forwarded as a Bearer token.
type Session struct {
	UserID string
	Token  string
}

func (s Session) cachePrefix() string { return "user:" + s.UserID + ":" }

// Observer receives one call per upstream request.
type Observer interface {
	ObserveUpstream(op string, status int, d time.Duration)
}

type Options struct {
	BaseURL          string
	Timeout          time.Duration
	HTTPClient       *http.Client
	TransactionCache cache.Cache[[]core.Transaction]
	DebtCache        cache.Cache[[]core.DebtLoanItem]
	Observer         Observer
	Logger           *applog.Logger
}

type Client struct {
	baseURL   string
	http      *http.Client
	txCache   cache.Cache[[]core.Transaction]
	debtCache cache.Cache[[]core.DebtLoanItem]
	observer  Observer
	logger    *applog.Logger
}

// NewClient creates a client. Caches are optional; without them every list
// call goes upstream.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		http:      hc,
		txCache:   opts.TransactionCache,
		debtCache: opts.DebtCache,
		observer:  opts.Observer,
		logger:    logger.WithComponent(applog.ComponentWordPress),
	}
}

// Login exchanges credentials for a JWT at the jwt-auth token endpoint.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var res LoginResult
	body := map[string]string{"username": username, "password": password}
	// jwt-auth answers bad credentials with 403, which maps to ErrUnauthorized
	if _, err := c.do(ctx, Session{}, "login", http.MethodPost, tokenPath, body, &res); err != nil {
		return LoginResult{}, err
	}
	if res.Token == "" {
		return LoginResult{}, fmt.Errorf("%w: empty token in login response", ErrUpstream)
	}
	return res, nil
}

// CurrentUser returns the user the session token belongs to.
func (c *Client) CurrentUser(ctx context.Context, s Session) (User, error) {
	var u User
	if _, err := c.do(ctx, s, "users_me", http.MethodGet, usersMePath+"?context=edit", nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Ping checks that the REST API root answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, Session{}, "ping", http.MethodGet, "/wp-json/", nil, nil)
	return err
}

// ListTransactions returns every transaction of the session's user.
func (c *Client) ListTransactions(ctx context.Context, s Session) ([]core.Transaction, error) {
	key := s.cachePrefix() + "transactions"
	if c.txCache != nil {
		if txs, ok := c.txCache.Get(key); ok {
			return slices.Clone(txs), nil
		}
	}

	raws, err := listAll[RawTransaction](ctx, c, s, "list_transactions", transactionsPath)
	if err != nil {
		return nil, err
	}
	txs := NormalizeTransactions(raws)

	if c.txCache != nil {
		c.txCache.Set(key, slices.Clone(txs))
	}
	return txs, nil
}

func (c *Client) CreateTransaction(ctx context.Context, s Session, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	var raw RawTransaction
	if _, err := c.do(ctx, s, "create_transaction", http.MethodPost, transactionsPath, transactionPayload(t), &raw); err != nil {
		return core.Transaction{}, err
	}
	c.invalidate(s)
	return NormalizeTransaction(raw), nil
}

func (c *Client) DeleteTransaction(ctx context.Context, s Session, id int64) error {
	path := transactionsPath + "/" + strconv.FormatInt(id, 10) + "?force=true"
	if _, err := c.do(ctx, s, "delete_transaction", http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	c.invalidate(s)
	return nil
}

// ListDebtLoans returns the session user's usable ledger entries. Records
// the normalization boundary rejects are logged and left out.
func (c *Client) ListDebtLoans(ctx context.Context, s Session) ([]core.DebtLoanItem, error) {
	key := s.cachePrefix() + "debts"
	if c.debtCache != nil {
		if items, ok := c.debtCache.Get(key); ok {
			return slices.Clone(items), nil
		}
	}

	raws, err := listAll[RawDebtLoan](ctx, c, s, "list_debts", debtLoansPath)
	if err != nil {
		return nil, err
	}
	items, skipped := NormalizeDebtLoans(raws)
	if skipped > 0 {
		c.logger.WarnContext(ctx, "Skipped malformed debt records",
			applog.FieldUserID, s.UserID,
			"skipped", skipped,
			"total", len(raws))
	}

	if c.debtCache != nil {
		c.debtCache.Set(key, slices.Clone(items))
	}
	return items, nil
}

func (c *Client) CreateDebtLoan(ctx context.Context, s Session, item core.DebtLoanItem) (core.DebtLoanItem, error) {
	if item.Status == "" {
		item.Status = core.Outstanding
	}
	if err := item.Validate(); err != nil {
		return core.DebtLoanItem{}, err
	}
	var raw RawDebtLoan
	if _, err := c.do(ctx, s, "create_debt", http.MethodPost, debtLoansPath, debtLoanPayload(item), &raw); err != nil {
		return core.DebtLoanItem{}, err
	}
	c.invalidate(s)

	created, ok := NormalizeDebtLoan(raw)
	if !ok {
		return core.DebtLoanItem{}, fmt.Errorf("%w: created debt record is malformed", ErrUpstream)
	}
	return created, nil
}

// UpdateDebtLoanStatus marks an entry paid or outstanding.
func (c *Client) UpdateDebtLoanStatus(ctx context.Context, s Session, id int64, status core.DebtStatus) (core.DebtLoanItem, error) {
	if !status.Valid() {
		return core.DebtLoanItem{}, core.ErrInvalidStatus
	}
	path := debtLoansPath + "/" + strconv.FormatInt(id, 10)
	body := map[string]any{"acf": map[string]any{"status": string(status)}}

	var raw RawDebtLoan
	if _, err := c.do(ctx, s, "update_debt_status", http.MethodPost, path, body, &raw); err != nil {
		return core.DebtLoanItem{}, err
	}
	c.invalidate(s)

	item, ok := NormalizeDebtLoan(raw)
	if !ok {
		return core.DebtLoanItem{}, fmt.Errorf("%w: updated debt record is malformed", ErrUpstream)
	}
	return item, nil
}

func (c *Client) invalidate(s Session) {
	if c.txCache != nil {
		c.txCache.DeletePrefix(s.cachePrefix())
	}
	if c.debtCache != nil {
		c.debtCache.DeletePrefix(s.cachePrefix())
	}
}

// listAll follows X-WP-TotalPages until every page has been read. When a
// proxy strips the header, paging continues while pages come back full.
func listAll[T any](ctx context.Context, c *Client, s Session, op, path string) ([]T, error) {
	var out []T
	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		q.Set("per_page", strconv.Itoa(perPage))
		q.Set("page", strconv.Itoa(page))
		q.Set("author", s.UserID)

		var batch []T
		hdr, err := c.do(ctx, s, op, http.MethodGet, path+"?"+q.Encode(), nil, &batch)
		if page > 1 && errors.Is(err, errPageOutOfRange) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)

		if len(batch) < perPage {
			break
		}
		if total, err := strconv.Atoi(hdr.Get("X-WP-TotalPages")); err == nil && page >= total {
			break
		}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, s Session, op, method, path string, body, out any) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, 0, start)
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
	}
	defer resp.Body.Close()
	c.observe(op, resp.StatusCode, start)

	if resp.StatusCode >= 400 {
		return nil, statusError(op, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("%w: decode %s response: %v", ErrUpstream, op, err)
		}
	}
	return resp.Header, nil
}

func (c *Client) observe(op string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(op, status, time.Since(start))
	}
}

func statusError(op string, resp *http.Response) error {
	var apiErr apiError
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(b, &apiErr)
	msg := apiErr.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode == http.StatusBadRequest && apiErr.Code == "rest_post_invalid_page_number" {
		return fmt.Errorf("%w: %w: %s: %s", ErrUpstream, errPageOutOfRange, op, msg)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s: %s", ErrUnauthorized, op, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s: %s", ErrNotFound, op, msg)
	default:
		return fmt.Errorf("%w: %s: status %d: %s", ErrUpstream, op, resp.StatusCode, msg)
	}
}
