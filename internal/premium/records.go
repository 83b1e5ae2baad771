// Package premium maps retrieved document identifiers onto curated marketing
// records via slug normalization and fallback matching.
package premium

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Record is a curated product record keyed by canonical slug. Records are
// read-only at request time; the dataset is regenerated offline.
type Record struct {
	DisplayName string   `yaml:"display_name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Variants    []string `yaml:"variants"`
}

// Records is the curated dataset: canonical product slug → record.
type Records map[string]Record

// LoadRecords reads the curated YAML dataset from disk. A missing file is an
// error; callers deciding to run without curated data should pass nil Records
// instead.
func LoadRecords(path string) (Records, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading premium dataset %s: %w", path, err)
	}
	var records Records
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing premium dataset %s: %w", path, err)
	}
	for key, rec := range records {
		for _, v := range rec.Variants {
			if normalizeSlug(v) == key {
				return nil, fmt.Errorf("premium dataset %s: record %q lists itself as a variant", path, key)
			}
		}
	}
	return records, nil
}
