// Package roster reads uploaded roster files (TSV or XLSX) into
// domain.Roster values. The first row holds the column headers.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported roster format (expected .tsv or .xlsx)")
	ErrEmptyRoster       = errors.New("roster has no header row")
	ErrInvalidRoster     = errors.New("roster file cannot be read")
)

// ParseFile opens path and parses it according to its extension.
func ParseFile(path string) (domain.Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Roster{}, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	return Parse(f, filepath.Base(path))
}

// Parse reads r as the format implied by filename's extension.
func Parse(r io.Reader, filename string) (domain.Roster, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tsv":
		return ParseTSV(r)
	case ".xlsx":
		return ParseXLSX(r)
	}
	return domain.Roster{}, ErrUnsupportedFormat
}

// ParseTSV reads tab separated values.
func ParseTSV(r io.Reader) (domain.Roster, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return domain.Roster{}, fmt.Errorf("%w: tsv: %v", ErrInvalidRoster, err)
	}
	return build(records)
}

// ParseXLSX reads the first worksheet of an Excel workbook.
func ParseXLSX(r io.Reader) (domain.Roster, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.Roster{}, fmt.Errorf("%w: xlsx: %v", ErrInvalidRoster, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.Roster{}, ErrEmptyRoster
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return domain.Roster{}, fmt.Errorf("%w: xlsx sheet %q: %v", ErrInvalidRoster, sheets[0], err)
	}
	return build(rows)
}

func build(records [][]string) (domain.Roster, error) {
	if len(records) == 0 {
		return domain.Roster{}, ErrEmptyRoster
	}

	columns := headers(records[0])
	out := domain.Roster{Columns: columns}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make(domain.RosterRow, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// headers trims the header cells, strips a UTF-8 BOM, names empty headers
// after their position and suffixes repeated names with _1, _2, ...
func headers(raw []string) []string {
	cols := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[h]; n > 0 {
			seen[h]++
			h = fmt.Sprintf("%s_%d", h, n)
		} else {
			seen[h] = 1
		}
		cols[i] = h
	}
	return cols
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
