// Package tollmatrix loads, parses and caches the per-corridor toll price
// matrices. A matrix is a square CSV table: the first row names the ramps on
// both axes, row r holds the prices for exiting at labels[r-1]. Cells are
// either a price (comma or period decimal separator) or a sentinel meaning
// "no toll defined between this pair", which is distinct from a zero price.
package tollmatrix

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

// cell holds a parsed price. ok=false means no price is defined for the
// pair, which must never collapse into an explicit 0.
type cell struct {
	price float64
	ok    bool
}

// Matrix is a queryable price table for one corridor group
type Matrix struct {
	labels []string
	grid   map[string]map[string]cell
}

// Labels returns the ramp names on the matrix axes, in source order
func (m *Matrix) Labels() []string {
	return m.labels
}

// Price looks up the toll for entering at entry and exiting at exit.
// Row is the exit ramp, column the entry ramp. A missing row, missing
// column or no-price cell all return ok=false; none of these are errors.
func (m *Matrix) Price(entry, exit string) (float64, bool) {
	row, found := m.grid[norm(exit)]
	if !found {
		return 0, false
	}
	c, found := row[norm(entry)]
	if !found {
		return 0, false
	}
	return c.price, c.ok
}

// norm strips a byte-order mark and surrounding whitespace from a label or
// cell value
func norm(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\uFEFF", ""))
}

// parseCell interprets a normalized cell value. Blank and a case-insensitive
// "X" are the defined no-price sentinels.
func parseCell(raw string) (cell, bool) {
	t := norm(raw)
	if t == "" || strings.EqualFold(t, "X") {
		return cell{}, true
	}

	n, err := strconv.ParseFloat(strings.ReplaceAll(t, ",", "."), 64)
	if err != nil {
		return cell{}, false
	}
	return cell{price: n, ok: true}, true
}

// Parse reads a square CSV matrix. With strict=false (the default policy) a
// malformed cell degrades to "no price defined" so a single bad value does
// not invalidate the whole table; with strict=true it fails the load.
func Parse(r io.Reader, strict bool) (*Matrix, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Matrix{grid: map[string]map[string]cell{}}, nil
	}

	header := records[0]
	labels := make([]string, len(header))
	for i, h := range header {
		labels[i] = norm(h)
	}

	grid := make(map[string]map[string]cell, len(labels))
	for r := 1; r < len(records); r++ {
		// Row r holds exit prices for labels[r-1]
		if r-1 >= len(labels) {
			break
		}
		exitName := labels[r-1]
		if exitName == "" {
			continue
		}

		rowArr := records[r]
		row := make(map[string]cell, len(labels))
		for c := 0; c < len(labels) && c < len(rowArr); c++ {
			parsed, wellFormed := parseCell(rowArr[c])
			if !wellFormed && strict {
				return nil, &MalformedCellError{Row: r, Col: c, Value: rowArr[c]}
			}
			row[labels[c]] = parsed
		}
		grid[exitName] = row
	}

	return &Matrix{labels: labels, grid: grid}, nil
}
