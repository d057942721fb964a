package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/bnema/slotbot/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
)

const databaseURLKey = "database.url"

//go:embed schema.sql
var schema embed.FS

// Store keeps high score records in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

var _ ports.RecordRepository = (*Store)(nil)

// DatabaseURL returns the configured connection string, empty when the
// Postgres ledger is disabled.
func DatabaseURL(cfg *viper.Viper) string {
	if cfg == nil {
		return ""
	}

	return cfg.GetString(databaseURLKey)
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}

func (s *Store) Save(ctx context.Context, record domain.Record) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	artifacts := record.Artifacts
	if artifacts == nil {
		artifacts = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO high_score_records (value, session_id, run_id, transcript, artifacts, set_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, record.Value, int(record.SessionID), string(record.RunID), record.Transcript, artifacts, record.SetAt)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT value, session_id, run_id, transcript, artifacts, set_at
		  FROM high_score_records
		 ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}

	return records, nil
}

func (s *Store) Best(ctx context.Context) (domain.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT value, session_id, run_id, transcript, artifacts, set_at
		  FROM high_score_records
		 ORDER BY value DESC, set_at ASC, id ASC
		 LIMIT 1
	`)
	if err != nil {
		return domain.Record{}, fmt.Errorf("query best record: %w", err)
	}

	record, err := pgx.CollectExactlyOneRow(rows, scanRecord)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Record{}, domain.ErrRecordNotFound
		}
		return domain.Record{}, fmt.Errorf("scan best record: %w", err)
	}

	return record, nil
}

func scanRecord(row pgx.CollectableRow) (domain.Record, error) {
	var (
		record    domain.Record
		sessionID int32
		runID     string
	)
	if err := row.Scan(&record.Value, &sessionID, &runID, &record.Transcript, &record.Artifacts, &record.SetAt); err != nil {
		return domain.Record{}, err
	}
	record.SessionID = domain.SessionID(sessionID)
	record.RunID = domain.RunID(runID)
	record.SetAt = record.SetAt.UTC()

	return record, nil
}
