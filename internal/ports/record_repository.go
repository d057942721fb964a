package ports

import (
	"context"

	"github.com/bnema/slotbot/internal/domain"
)

type RecordRepository interface {
	Save(ctx context.Context, record domain.Record) error
	List(ctx context.Context) ([]domain.Record, error)
	Best(ctx context.Context) (domain.Record, error)
}
