package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Fixture file names, without the .json extension. Result files are named
// after the search kind they serve.
const (
	FixtureDataSources  = "data_sources"
	FixtureConjunctions = "conjunctions"
	FixtureEphemeris    = "ephemeris"
	FixtureDataProducts = "data_products"
)

// Fixtures is the canned content served by the fake AuroraX API. Each file
// in a fixtures directory holds a JSON array of objects.
type Fixtures struct {
	DataSources []map[string]any
	Results     map[string][]map[string]any
}

// LoadFixtures loads fixture files from the specified directory.
// Only files with a .json extension are processed; every one of them must
// have a known name.
func LoadFixtures(dir string) (*Fixtures, error) {
	// Check if directory exists
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access fixtures directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fixtures path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures directory %q: %w", dir, err)
	}

	fixtures := &Fixtures{Results: map[string][]map[string]any{}}

	loadedCount := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filename := entry.Name()
		if !strings.HasSuffix(strings.ToLower(filename), ".json") {
			continue
		}

		filePath := filepath.Join(dir, filename)
		rows, err := loadFixtureFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load fixture from %q: %w", filePath, err)
		}

		switch name := strings.TrimSuffix(filename, filepath.Ext(filename)); name {
		case FixtureDataSources:
			if err := validateDataSources(rows); err != nil {
				return nil, fmt.Errorf("invalid data sources in %q: %w", filePath, err)
			}
			fixtures.DataSources = rows
		case FixtureConjunctions, FixtureEphemeris, FixtureDataProducts:
			fixtures.Results[name] = rows
		default:
			return nil, fmt.Errorf("unknown fixture file %q", filePath)
		}

		loadedCount++
	}

	if loadedCount == 0 {
		return nil, fmt.Errorf("no fixture files found in %q", dir)
	}

	return fixtures, nil
}

// loadFixtureFile loads a single JSON array of objects.
func loadFixtureFile(filePath string) ([]map[string]any, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return rows, nil
}

// validateDataSources checks that every data source has a unique integer identifier.
func validateDataSources(rows []map[string]any) error {
	seen := make(map[int]bool, len(rows))
	for i, ds := range rows {
		f, ok := ds["identifier"].(float64)
		if !ok || f != float64(int(f)) {
			return fmt.Errorf("data source %d must have an integer identifier", i)
		}

		id := int(f)
		if seen[id] {
			return fmt.Errorf("data source identifier %d is not unique", id)
		}
		seen[id] = true
		// The fake matches identifiers as ints.
		ds["identifier"] = id
	}
	return nil
}
