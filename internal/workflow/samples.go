package workflow

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

//go:embed queries/*.ql
var sampleQueries embed.FS

// SampleQueryNames lists the bundled CodeQL queries.
func SampleQueryNames() []string {
	entries, _ := fs.ReadDir(sampleQueries, "queries")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// EnsureSampleQueries writes each bundled query into dir unless a file of
// that name already exists. It returns the paths it created; failures for
// individual files are joined into the error and do not stop the others.
func EnsureSampleQueries(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create query dir: %w", err)
	}
	var (
		created []string
		errs    []error
	)
	for _, name := range SampleQueryNames() {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		data, err := sampleQueries.ReadFile("queries/" + name)
		if err != nil {
			errs = append(errs, fmt.Errorf("could not read %s: %w", name, err))
			continue
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("could not create %s: %w", name, err))
			continue
		}
		created = append(created, path)
	}
	return created, errors.Join(errs...)
}
