package record

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Row is the ordered values of one projected record, aligned to the owning
// Batch's field list. The alignment is what guarantees every projected record
// carries exactly the configured output fields.
type Row []Value

// Batch is the ordered sequence of projected rows produced from one fetch.
type Batch struct {
	Fields []string
	Rows   []Row
}

// Len returns the number of rows in the batch.
func (b Batch) Len() int { return len(b.Rows) }

// EncodeTSV writes the batch as tab separated text with a header row of field
// names. Values are rendered with Value.Text; fields containing tabs, quotes
// or newlines are quoted per RFC 4180. This format is the unit written to the
// object store and must stay consistent with any downstream reader.
func (b Batch) EncodeTSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(b.Fields); err != nil {
		return fmt.Errorf("could not write header: %v", err)
	}

	row := make([]string, len(b.Fields))
	for i, r := range b.Rows {
		if len(r) != len(b.Fields) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(r), len(b.Fields))
		}
		for j, v := range r {
			row[j] = v.Text()
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("could not write row %d: %v", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
