package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hisab/internal/share"
)

// PostgresShareStore keeps share snapshots in PostgreSQL.
type PostgresShareStore struct {
	pool *pgxpool.Pool
}

var _ share.Store = (*PostgresShareStore)(nil)

// NewPostgresShareStore migrates the schema and opens a connection pool.
func NewPostgresShareStore(ctx context.Context, dsn string) (*PostgresShareStore, error) {
	if err := RunPostgresMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.InfoContext(ctx, "PostgreSQL share store ready")
	return &PostgresShareStore{pool: pool}, nil
}

func (s *PostgresShareStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresShareStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresShareStore) Save(ctx context.Context, d share.Data) error {
	body, err := encodeItems(d.Transactions)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO share_links (token, owner_id, owner_name, person_name, payment_qr_code_url, transactions, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.Token, d.OwnerID, d.OwnerName, d.PersonName, d.PaymentQRCodeURL, body, d.CreatedAt, d.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert share link: %w", err)
	}
	return nil
}

func (s *PostgresShareStore) Get(ctx context.Context, token string) (share.Data, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT token, owner_id, owner_name, person_name, payment_qr_code_url, transactions, created_at, expires_at
		FROM share_links WHERE token = $1`, token)
	d, err := scanPgShare(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return share.Data{}, share.ErrNotFound
	}
	if err != nil {
		return share.Data{}, fmt.Errorf("get share link: %w", err)
	}
	return d, nil
}

func (s *PostgresShareStore) Delete(ctx context.Context, token string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM share_links WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete share link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return share.ErrNotFound
	}
	return nil
}

func (s *PostgresShareStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM share_links WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired share links: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresShareStore) ListByOwner(ctx context.Context, ownerID string) ([]share.Data, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT token, owner_id, owner_name, person_name, payment_qr_code_url, transactions, created_at, expires_at
		FROM share_links WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list share links: %w", err)
	}
	defer rows.Close()

	var out []share.Data
	for rows.Next() {
		d, err := scanPgShare(rows)
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

func scanPgShare(r pgx.Row) (share.Data, error) {
	var (
		d    share.Data
		body []byte
	)
	if err := r.Scan(&d.Token, &d.OwnerID, &d.OwnerName, &d.PersonName, &d.PaymentQRCodeURL, &body, &d.CreatedAt, &d.ExpiresAt); err != nil {
		return share.Data{}, err
	}
	items, err := decodeItems(body)
	if err != nil {
		return share.Data{}, err
	}
	d.Transactions = items
	d.CreatedAt = d.CreatedAt.UTC()
	d.ExpiresAt = d.ExpiresAt.UTC()
	return d, nil
}
