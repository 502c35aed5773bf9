package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadComunas reads the comuna slugs from the named column of a CSV file.
func LoadComunas(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open comunas: %w", err)
	}
	defer f.Close()
	return ReadComunas(f, column)
}

// ReadComunas returns the non-empty values of column in file order,
// without duplicates. The header match ignores case and a leading BOM.
func ReadComunas(r io.Reader, column string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("comunas: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("comunas header: %w", err)
	}

	col := -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if strings.EqualFold(name, column) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("comunas: column %q not found", column)
	}

	var out []string
	seen := make(map[string]struct{})
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("comunas row: %w", err)
		}
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// FilterComunas keeps the entries of all that appear in only, in the
// order of all. An empty filter keeps everything.
func FilterComunas(all, only []string) []string {
	if len(only) == 0 {
		return all
	}
	keep := make(map[string]struct{}, len(only))
	for _, c := range only {
		keep[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	out := make([]string, 0, len(only))
	for _, c := range all {
		if _, ok := keep[strings.ToLower(c)]; ok {
			out = append(out, c)
		}
	}
	return out
}
