package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldwork/backoffice-api/internal/core/ports"
)

const defaultTimeout = 5 * time.Second

var tablePattern = regexp.MustCompile(`^[a-z][a-z_]*$`)

// Config captures the settings for a Postgres connection pool.
type Config struct {
	DSN      string
	MaxConns int32
	Timeout  time.Duration
}

// Connect opens a GORM pool, applies pool limits and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*gorm.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres sql db: %w", err)
	}
	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(int(cfg.MaxConns))
		sqlDB.SetMaxIdleConns(int(cfg.MaxConns) / 2)
	}
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

// Provider hands out one RecordStore per table.
type Provider struct {
	db *gorm.DB
}

func NewProvider(db *gorm.DB) *Provider {
	return &Provider{db: db}
}

func (p *Provider) Store(table string) ports.RecordStore {
	return &RecordStore{db: p.db, table: table}
}

func (p *Provider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// EnsureTables creates the record table and its indexes for every name.
// Statements run one by one since prepared statements reject batches.
func (p *Provider) EnsureTables(ctx context.Context, tables ...string) error {
	for _, t := range tables {
		if !tablePattern.MatchString(t) {
			return fmt.Errorf("invalid table name %q", t)
		}
		stmts := []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	id         TEXT PRIMARY KEY,
	field_id   TEXT NOT NULL,
	deleted    TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	data       JSONB NOT NULL DEFAULT '{}'::jsonb
)`, t),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (field_id, deleted)`, t+"_field_deleted_idx", t),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (deleted, created_at)`, t+"_deleted_created_idx", t),
		}
		for _, stmt := range stmts {
			if err := p.db.WithContext(ctx).Exec(stmt).Error; err != nil {
				return fmt.Errorf("ensure table %s: %w", t, err)
			}
		}
	}
	return nil
}
