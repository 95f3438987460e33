// Package student defines the student record, the editable field set and
// the error kinds shared by the store gateway and the form controller.
package student

import (
	"fmt"
	"strconv"
	"strings"
)

// Columns are the grid headers, in display order.
var Columns = []string{"ID", "Name", "Class", "Batch Year", "Mobile"}

// Record is one row of the students table.
type Record struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	BatchYear int    `json:"batch_year"`
	Mobile    string `json:"mobile"`
}

// Fields holds the four user-editable values of a record.
// The id is never editable; the store assigns it.
type Fields struct {
	Name      string
	Class     string
	BatchYear int
	Mobile    string
}

// Fields projects the record onto its editable values.
func (r Record) Fields() Fields {
	return Fields{
		Name:      r.Name,
		Class:     r.Class,
		BatchYear: r.BatchYear,
		Mobile:    r.Mobile,
	}
}

// Values renders the record as grid cells matching Columns.
func (r Record) Values() []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Name,
		r.Class,
		strconv.Itoa(r.BatchYear),
		r.Mobile,
	}
}

// ParseRow converts grid cells (as produced by Values) back into a Record.
func ParseRow(cells []string) (Record, error) {
	if len(cells) != len(Columns) {
		return Record{}, fmt.Errorf("row has %d cells, want %d", len(cells), len(Columns))
	}

	id, err := strconv.ParseInt(strings.TrimSpace(cells[0]), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid id %q: %w", cells[0], err)
	}

	year, err := ParseBatchYear(cells[3])
	if err != nil {
		return Record{}, err
	}

	return Record{
		ID:        id,
		Name:      cells[1],
		Class:     cells[2],
		BatchYear: year,
		Mobile:    cells[4],
	}, nil
}

// ParseBatchYear parses a batch year typed by the user.
// Blank input is the zero year, which Validate treats as missing.
func ParseBatchYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number for batch year %q", s)
	}
	return year, nil
}

// Validate reports the first missing field, if any.
// Text fields are missing when blank; batch year is missing when zero.
func (f Fields) Validate() error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return &FieldError{Field: "name"}
	case strings.TrimSpace(f.Class) == "":
		return &FieldError{Field: "class"}
	case f.BatchYear == 0:
		return &FieldError{Field: "batch year"}
	case strings.TrimSpace(f.Mobile) == "":
		return &FieldError{Field: "mobile"}
	}
	return nil
}

// IsZero reports whether every field holds its zero value.
func (f Fields) IsZero() bool {
	return f == Fields{}
}
