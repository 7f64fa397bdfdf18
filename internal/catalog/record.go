package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Record is one catalog entry as persisted in the docstore. Text is the
// flattened rendering and is never modified after the build.
type Record struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	SourceURL string `json:"source"`
	Text      string `json:"text"`
}

// LoadDocstore reads the record list written by SaveDocstore.
func LoadDocstore(path string) ([]Record, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is from application config
	if err != nil {
		return nil, fmt.Errorf("docstore %s: %w", path, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse docstore: %w", err)
	}
	return records, nil
}

func SaveDocstore(path string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
