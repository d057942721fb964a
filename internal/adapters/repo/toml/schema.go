package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int            `toml:"version"`
	Records []recordSchema `toml:"records"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported records schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type recordSchema struct {
	Value      int64    `toml:"value"`
	SessionID  int      `toml:"session_id"`
	RunID      string   `toml:"run_id"`
	SetAt      string   `toml:"set_at"`
	Artifacts  []string `toml:"artifacts,omitempty"`
	Transcript string   `toml:"transcript,multiline"`
}
