package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/bnema/slotbot/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	recordsPathKey    = "records.path"
	recordsFileMode   = 0o600
	recordsDirMode    = 0o700
	recordsConfigDir  = ".slotbot"
	recordsConfigFile = "records.toml"
	tempFilePattern   = ".records-*.toml.tmp"
)

// Repository is an append-only ledger of high score records kept in a TOML
// file. Instances pointing at the same path share one lock.
type Repository struct {
	recordsPath string
	mu          *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.RecordRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	cfg.SetDefault(recordsPathKey, filepath.Join(homeDir, recordsConfigDir, recordsConfigFile))

	recordsPath := cfg.GetString(recordsPathKey)
	if recordsPath == "" {
		return nil, errors.New("records path is empty")
	}
	recordsPath, err = normalizeRecordsPath(recordsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{recordsPath: recordsPath, mu: lockForPath(recordsPath)}, nil
}

func (r *Repository) Path() string {
	return r.recordsPath
}

func (r *Repository) Save(ctx context.Context, record domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.Records = append(file.Records, toSchema(record))

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) List(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(file.Records))
	for _, entry := range file.Records {
		records = append(records, fromSchema(entry))
	}

	return records, nil
}

// Best returns the highest record in the ledger; the earliest one wins a tie.
func (r *Repository) Best(ctx context.Context) (domain.Record, error) {
	records, err := r.List(ctx)
	if err != nil {
		return domain.Record{}, err
	}
	if len(records) == 0 {
		return domain.Record{}, domain.ErrRecordNotFound
	}

	best := records[0]
	for _, record := range records[1:] {
		if record.Value > best.Value {
			best = record
		}
	}

	return best, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.recordsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := fileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return fileSchema{}, fmt.Errorf("read records file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode records file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeRecordsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve records path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode records file: %w", err)
	}

	return writeFileAtomic(r.recordsPath, data)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), recordsDirMode); err != nil {
		return fmt.Errorf("create records directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp records file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp records file: %w", err)
	}

	if err := tempFile.Chmod(recordsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp records file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp records file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace records file: %w", err)
	}
	cleanup = false

	return nil
}

func toSchema(record domain.Record) recordSchema {
	return recordSchema{
		Value:      record.Value,
		SessionID:  int(record.SessionID),
		RunID:      string(record.RunID),
		SetAt:      formatTime(record.SetAt),
		Artifacts:  append([]string(nil), record.Artifacts...),
		Transcript: record.Transcript,
	}
}

func fromSchema(record recordSchema) domain.Record {
	return domain.Record{
		Value:      record.Value,
		SessionID:  domain.SessionID(record.SessionID),
		RunID:      domain.RunID(record.RunID),
		Transcript: record.Transcript,
		Artifacts:  append([]string(nil), record.Artifacts...),
		SetAt:      parseTime(record.SetAt),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
