// Package processor is the implementation of the transform stage.
// The transform stage projects raw records onto a fixed set of fields, filters
// them when a condition is configured, and renders the result as the upload payload.
package processor

import (
	"bytes"
	"errors"
	"log/slog"

	"github.com/feedsnap/feedsnap/internal/record"
)

var (
	// ErrInvalidSpec is returned when the transform spec is not properly configured.
	ErrInvalidSpec = errors.New("transform spec is invalid")
	// ErrTransformFailed is returned when the records could not be rendered as a payload.
	ErrTransformFailed = errors.New("transform failed")
)

// Processor transforms raw records into upload payloads.
type Processor struct {
	spec Spec

	log *slog.Logger
}

// New returns a new Processor for the given spec.
// The spec is sanitized before use.
func New(l *slog.Logger, spec Spec) (Processor, error) {
	l.Debug("Creating new processor", "fields", spec.Fields)

	if err := spec.Sanitize(l); err != nil {
		return Processor{}, errors.Join(ErrInvalidSpec, err)
	}

	return Processor{
		spec: spec,
		log:  l,
	}, nil
}

// Transform projects the records onto the spec fields, in spec order,
// applying the filter when one is configured.
//
// A record missing a field takes the configured default for it, or null when
// there is none. A field that is present as null stays null. Records are only
// ever excluded by the filter, never for their shape. The input is not modified.
func (p Processor) Transform(recs []record.Record) record.Batch {
	p.log.Debug("Transforming records", "records", len(recs))

	batch := record.Batch{
		Fields: p.spec.Fields,
		Rows:   make([]record.Row, 0, len(recs)),
	}
	for _, rec := range recs {
		if p.spec.Filter != nil && !p.spec.Filter.Matches(rec) {
			continue
		}

		row := make(record.Row, 0, len(p.spec.Fields))
		for _, f := range p.spec.Fields {
			v, ok := rec[f]
			if !ok {
				v = record.Null()
				if d, ok := p.spec.Defaults[f]; ok {
					v = d
				}
			}
			row = append(row, v)
		}
		batch.Rows = append(batch.Rows, row)
	}

	p.log.Info("Records transformed", "in", len(recs), "out", batch.Len())
	return batch
}

// Encode renders the batch as tab separated values with a header line.
func (p Processor) Encode(batch record.Batch) ([]byte, error) {
	var buf bytes.Buffer
	if err := batch.EncodeTSV(&buf); err != nil {
		return nil, errors.Join(ErrTransformFailed, err)
	}
	return buf.Bytes(), nil
}
