package source

import (
	"strconv"
	"strings"
	"time"
)

// Record is one data row keyed by the sheet's header row. Values stay
// raw strings; the typed accessors below implement the per-field
// defaulting rules, so parse failures never abort a batch.
type Record map[string]string

// Records converts a grid (first row = headers) into header-keyed
// records. Rows shorter than the header row are padded with "".
// A grid without data rows yields an empty slice.
func Records(grid [][]string) []Record {
	if len(grid) < 2 {
		return []Record{}
	}

	headers := grid[0]
	records := make([]Record, 0, len(grid)-1)
	for _, row := range grid[1:] {
		rec := make(Record, len(headers))
		for i, header := range headers {
			if i < len(row) {
				rec[header] = row[i]
			} else {
				rec[header] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

// Str returns the trimmed cell value.
func (r Record) Str(key string) string {
	return strings.TrimSpace(r[key])
}

// StrOr returns the trimmed cell value, or def when blank.
func (r Record) StrOr(key, def string) string {
	if v := r.Str(key); v != "" {
		return v
	}
	return def
}

// NullableStr returns nil for blank cells.
func (r Record) NullableStr(key string) *string {
	v := r.Str(key)
	if v == "" {
		return nil
	}
	return &v
}

// Float parses the cell as a float, defaulting to 0 on failure.
func (r Record) Float(key string) float64 {
	v := strings.TrimSuffix(r.Str(key), "%")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// Int parses the cell as an integer, defaulting to 0 on failure.
func (r Record) Int(key string) int {
	n, err := strconv.Atoi(r.Str(key))
	if err != nil {
		return 0
	}
	return n
}

// feed timestamps arrive in a handful of formats depending on the
// exporting system
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// Time parses the cell against the known feed layouts, returning nil
// when blank or unparseable.
func (r Record) Time(key string) *time.Time {
	v := r.Str(key)
	if v == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}
