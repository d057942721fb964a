package ports

import (
	"context"

	"github.com/bnema/slotbot/internal/domain"
)

type EvidenceSink interface {
	Persist(ctx context.Context, record domain.Record) error
}

type EvidenceRenderer interface {
	Render(ctx context.Context, record domain.Record) ([]string, error)
}
