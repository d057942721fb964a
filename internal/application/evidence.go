package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/bnema/slotbot/internal/ports"
)

// EvidenceRecorder renders a record's transcript and appends the record,
// with its artifact paths, to the ledger. Either collaborator may be nil.
type EvidenceRecorder struct {
	renderer ports.EvidenceRenderer
	records  ports.RecordRepository
}

var _ ports.EvidenceSink = (*EvidenceRecorder)(nil)

func NewEvidenceRecorder(renderer ports.EvidenceRenderer, records ports.RecordRepository) *EvidenceRecorder {
	return &EvidenceRecorder{renderer: renderer, records: records}
}

func (e *EvidenceRecorder) Persist(ctx context.Context, record domain.Record) error {
	var errs []error

	if e.renderer != nil {
		artifacts, err := e.renderer.Render(ctx, record)
		if err != nil {
			errs = append(errs, fmt.Errorf("render evidence: %w", err))
		}
		record.Artifacts = artifacts
	}

	if e.records != nil {
		if err := e.records.Save(ctx, record); err != nil {
			errs = append(errs, fmt.Errorf("save record: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, errors.Join(errs...))
	}

	return nil
}
