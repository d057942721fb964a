package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/bnema/slotbot/internal/ports"
)

type RecordService struct {
	records ports.RecordRepository
}

func NewRecordService(records ports.RecordRepository) *RecordService {
	return &RecordService{records: records}
}

// ListRecords returns persisted records, newest first. A limit <= 0 returns
// all of them.
func (s *RecordService) ListRecords(ctx context.Context, limit int) ([]domain.Record, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].SetAt.Equal(records[j].SetAt) {
			return records[i].Value > records[j].Value
		}
		return records[i].SetAt.After(records[j].SetAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

func (s *RecordService) BestRecord(ctx context.Context) (domain.Record, error) {
	record, err := s.records.Best(ctx)
	if err != nil {
		return domain.Record{}, err
	}

	return record, nil
}
