package linkstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/domain"
)

const createLinksTable = `
	CREATE TABLE IF NOT EXISTS dota_account_links (
		user_id    TEXT PRIMARY KEY,
		account_id BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Migrate creates the links table if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createLinksTable); err != nil {
		return fmt.Errorf("create dota_account_links: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, userID string) (domain.AccountID, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrInvalidUser
	}
	var id int64
	err := p.db.QueryRowContext(ctx, `SELECT account_id FROM dota_account_links WHERE user_id = $1`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotLinked
	}
	if err != nil {
		return 0, fmt.Errorf("select link: %w", err)
	}
	return accountFromColumn(id, userID)
}

// BIGINT 컬럼을 32비트 계정 ID 로 좁힌다. 범위를 벗어나면 손상된 링크.
func accountFromColumn(v int64, userID string) (domain.AccountID, error) {
	if v <= 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: account_id %d for %s", ErrCorruptLink, v, userID)
	}
	return domain.AccountID(v), nil
}

func (p *PostgresStore) Set(ctx context.Context, userID string, id domain.AccountID) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidUser
	}
	const q = `
		INSERT INTO dota_account_links (user_id, account_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			updated_at = EXCLUDED.updated_at`
	if _, err := p.db.ExecContext(ctx, q, userID, int64(id)); err != nil {
		return fmt.Errorf("upsert link: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
