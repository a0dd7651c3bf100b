package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"hisab/internal/core"
	"hisab/internal/share"

	_ "modernc.org/sqlite"
)

// SQLiteShareStore keeps share snapshots in a local sqlite database.
type SQLiteShareStore struct {
	db *sql.DB
}

var _ share.Store = (*SQLiteShareStore)(nil)

func NewSQLiteShareStore(dbPath string) (*SQLiteShareStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteShareStore{db: db}, nil
}

func (s *SQLiteShareStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteShareStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteShareStore) Save(ctx context.Context, d share.Data) error {
	body, err := encodeItems(d.Transactions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO share_links (token, owner_id, owner_name, person_name, payment_qr_code_url, transactions, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Token, d.OwnerID, d.OwnerName, d.PersonName, d.PaymentQRCodeURL, body,
		d.CreatedAt.UnixNano(), d.ExpiresAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert share link: %w", err)
	}

	slog.DebugContext(ctx, "Share link saved to SQLite", "owner_id", d.OwnerID, "items", len(d.Transactions))
	return nil
}

func (s *SQLiteShareStore) Get(ctx context.Context, token string) (share.Data, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT token, owner_id, owner_name, person_name, payment_qr_code_url, transactions, created_at, expires_at
FROM share_links WHERE token = ?`, token)
	d, err := scanShare(row)
	if errors.Is(err, sql.ErrNoRows) {
		return share.Data{}, share.ErrNotFound
	}
	if err != nil {
		return share.Data{}, fmt.Errorf("get share link: %w", err)
	}
	return d, nil
}

func (s *SQLiteShareStore) Delete(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM share_links WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete share link: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return share.ErrNotFound
	}
	return nil
}

func (s *SQLiteShareStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM share_links WHERE expires_at <= ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete expired share links: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *SQLiteShareStore) ListByOwner(ctx context.Context, ownerID string) ([]share.Data, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT token, owner_id, owner_name, person_name, payment_qr_code_url, transactions, created_at, expires_at
FROM share_links WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list share links: %w", err)
	}
	defer rows.Close()

	var out []share.Data
	for rows.Next() {
		d, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share link: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("share link rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShare(r rowScanner) (share.Data, error) {
	var (
		d                  share.Data
		body               string
		created, expiresAt int64
	)
	if err := r.Scan(&d.Token, &d.OwnerID, &d.OwnerName, &d.PersonName, &d.PaymentQRCodeURL, &body, &created, &expiresAt); err != nil {
		return share.Data{}, err
	}
	items, err := decodeItems([]byte(body))
	if err != nil {
		return share.Data{}, err
	}
	d.Transactions = items
	d.CreatedAt = time.Unix(0, created).UTC()
	d.ExpiresAt = time.Unix(0, expiresAt).UTC()
	return d, nil
}

func encodeItems(items []core.DebtLoanItem) ([]byte, error) {
	if items == nil {
		items = []core.DebtLoanItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode share items: %w", err)
	}
	return b, nil
}

func decodeItems(b []byte) ([]core.DebtLoanItem, error) {
	var items []core.DebtLoanItem
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decode share items: %w", err)
	}
	return items, nil
}
