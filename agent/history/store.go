package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Record is one row of the analysis log. Only derived metadata is persisted,
// never transcript text.
type Record struct {
	bun.BaseModel `bun:"table:analysis_log,alias:al"`

	ID               string    `bun:"id,pk" json:"id"`
	ToolUsed         string    `bun:"tool_used" json:"tool_used,omitempty"`
	EnvelopeType     string    `bun:"envelope_type" json:"envelope_type"`
	TranscriptLength int       `bun:"transcript_length" json:"transcript_length"`
	ItemCount        int       `bun:"item_count" json:"item_count"`
	FailureKind      string    `bun:"failure_kind,nullzero" json:"failure_kind,omitempty"`
	CreatedAt        time.Time `bun:"created_at" json:"created_at"`
}

// Store persists analysis records. Append failures must never fail the
// request that produced the record.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// Config holds the history store settings. An empty DSN disables persistence.
type Config struct {
	DSN string `envconfig:"DSN" split_words:"true"`
}

// PostgresStore is the bun-backed Store.
type PostgresStore struct {
	db *bun.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(cfg Config) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history store requires a DSN")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &PostgresStore{db: db}, nil
}

// Init creates the analysis_log table when it does not exist yet.
func (s *PostgresStore) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create analysis_log table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(&rec).Exec(ctx); err != nil {
		return fmt.Errorf("append analysis record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []Record
	if err := s.db.NewSelect().Model(&records).OrderExpr("created_at DESC").Limit(limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("load recent analysis records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Noop discards records. Used when no DSN is configured.
type Noop struct{}

var _ Store = Noop{}

func (Noop) Append(context.Context, Record) error { return nil }

func (Noop) Recent(context.Context, int) ([]Record, error) { return nil, nil }
