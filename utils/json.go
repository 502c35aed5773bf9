package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/facualex/portalinmobiliario-etl/models"
)

// WriteJSON truncates filename and writes v as a single indented JSON
// document, so repeated runs never produce concatenated output.
func WriteJSON(filename string, v any) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteRecords writes every extracted record into one flat JSON array.
// Returns the number of records written.
func WriteRecords(filename string, results []models.ComunaResult) (int, error) {
	all := models.Apartments(results)
	if err := WriteJSON(filename, all); err != nil {
		return 0, err
	}
	return len(all), nil
}

// ReadLinks loads a link index previously written with WriteJSON.
func ReadLinks(filename string) (*models.LinkIndex, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	idx := models.NewLinkIndex()
	if err := json.Unmarshal(raw, idx); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return idx, nil
}
