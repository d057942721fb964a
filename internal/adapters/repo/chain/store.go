package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/bnema/slotbot/internal/ports"
)

// Store tries the primary ledger first and falls back to the secondary one
// when the primary fails for any reason other than cancellation.
type Store struct {
	primary  ports.RecordRepository
	fallback ports.RecordRepository
}

var _ ports.RecordRepository = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary record store is nil")
	errNilFallbackStore = errors.New("fallback record store is nil")
)

func NewStore(primary ports.RecordRepository, fallback ports.RecordRepository) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func (s *Store) Save(ctx context.Context, record domain.Record) error {
	err := s.primary.Save(ctx, record)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Save(ctx, record)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend save failed: %w; fallback backend save failed: %w", err, fallbackErr)
}

func (s *Store) List(ctx context.Context) ([]domain.Record, error) {
	records, err := s.primary.List(ctx)
	if err == nil {
		return records, nil
	}
	if shouldSkipFallback(err) {
		return nil, err
	}

	fallbackRecords, fallbackErr := s.fallback.List(ctx)
	if fallbackErr == nil {
		return fallbackRecords, nil
	}

	return nil, fmt.Errorf("primary backend list failed: %w; fallback backend list failed: %w", err, fallbackErr)
}

func (s *Store) Best(ctx context.Context) (domain.Record, error) {
	record, err := s.primary.Best(ctx)
	if err == nil {
		return record, nil
	}
	if shouldSkipFallback(err) {
		return domain.Record{}, err
	}

	fallbackRecord, fallbackErr := s.fallback.Best(ctx)
	if fallbackErr == nil {
		return fallbackRecord, nil
	}

	return domain.Record{}, fmt.Errorf("primary backend best failed: %w; fallback backend best failed: %w", err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
