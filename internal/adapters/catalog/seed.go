// internal/adapters/catalog/seed.go
package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ammerola/greencycle-be/internal/core/domain"
)

// seedFile is the YAML layout of a demo catalog
type seedFile struct {
	Items []seedItem `yaml:"items"`
}

// seedItem lets a seed state its age ("3m", "2h", "5d", "2w") instead of a
// fixed created_at, so a demo catalog stays fresh.
type seedItem struct {
	domain.Item `yaml:",inline"`
	Age         string `yaml:"age"`
}

// LoadSeedFile reads a YAML or xlsx catalog, chosen by extension
func LoadSeedFile(path string) ([]domain.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseSeed(bytes.NewReader(data), time.Now().UTC())
	case ".xlsx":
		return ReadWorkbook(data)
	default:
		return nil, fmt.Errorf("unsupported seed format %q", filepath.Ext(path))
	}
}

// ParseSeed decodes a YAML catalog, validating every item. Relative ages are
// resolved against now.
func ParseSeed(r io.Reader, now time.Time) ([]domain.Item, error) {
	var file seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return []domain.Item{}, nil
		}
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}

	items := make([]domain.Item, 0, len(file.Items))
	for i, s := range file.Items {
		item := s.Item
		if s.Age != "" {
			age, err := ParseAge(s.Age)
			if err != nil {
				return nil, fmt.Errorf("item %d (%s): %w", i+1, item.Title, err)
			}
			item.CreatedAt = now.Add(-age)
		}
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("item %d (%s): %w", i+1, item.Title, err)
		}
		item.PrepareForStorage()
		items = append(items, item)
	}
	return items, nil
}

// ParseAge accepts Go durations plus day ("d") and week ("w") suffixes
func ParseAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	unit := time.Duration(0)
	switch {
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
	}
	if unit != 0 {
		n, err := strconv.Atoi(strings.TrimSpace(s[:len(s)-1]))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid age %q", s)
		}
		return time.Duration(n) * unit, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid age %q", s)
	}
	return d, nil
}
