// Package runner drives one invocation of the pipeline through its stages.
//
// A run moves through FETCH, TRANSFORM, UPLOAD and NOTIFY in that order. The
// first stage failure short circuits straight to NOTIFY, and exactly one
// notification goes out no matter how the run ends. A notification failure is
// logged but never turns a successful run into a failed one.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedsnap/feedsnap/internal/notifier"
	"github.com/feedsnap/feedsnap/internal/record"
	"github.com/google/uuid"
)

// Stages of a run, in execution order.
const (
	StageFetch     = "FETCH"
	StageTransform = "TRANSFORM"
	StageUpload    = "UPLOAD"
	StageNotify    = "NOTIFY"
)

// Fetcher retrieves the raw records.
type Fetcher interface {
	Fetch(ctx context.Context) ([]record.Record, error)
}

// Processor turns raw records into an upload payload.
type Processor interface {
	Transform(recs []record.Record) record.Batch
	Encode(batch record.Batch) ([]byte, error)
}

// Uploader stores the payload and returns its location.
type Uploader interface {
	Upload(ctx context.Context, payload []byte) (string, error)
}

// Notifier publishes a message describing the outcome of a run.
type Notifier interface {
	NotifySuccess(ctx context.Context, s notifier.Success) error
	NotifyFailure(ctx context.Context, f notifier.Failure) error
}

// Outcome is the final state of a run.
type Outcome struct {
	Success  bool
	Location string // object location, on success
	Records  int    // records uploaded, on success
	Stage    string // stage the run stopped at, on failure
	Err      error  // cause, on failure
}

// Runner wires the stages of one invocation together.
type Runner struct {
	fetcher   Fetcher
	processor Processor
	uploader  Uploader
	notifier  Notifier

	runID string

	log *slog.Logger
}

type options struct {
	runID string
}

var defaultOptions = options{}

// Options represents an optional function to override Runner default values.
type Options func(*options)

// WithRunID sets the run identifier, replacing the generated one.
// On Lambda this is the AWS request ID.
func WithRunID(id string) Options {
	return func(o *options) {
		o.runID = id
	}
}

// New returns a new Runner for the given stage implementations.
func New(l *slog.Logger, f Fetcher, p Processor, u Uploader, n Notifier, args ...Options) (Runner, error) {
	if f == nil {
		return Runner{}, errors.New("fetcher cannot be nil")
	}
	if p == nil {
		return Runner{}, errors.New("processor cannot be nil")
	}
	if u == nil {
		return Runner{}, errors.New("uploader cannot be nil")
	}
	if n == nil {
		return Runner{}, errors.New("notifier cannot be nil")
	}

	opts := defaultOptions
	for _, opt := range args {
		opt(&opts)
	}
	if opts.runID == "" {
		opts.runID = uuid.NewString()
	}

	return Runner{
		fetcher:   f,
		processor: p,
		uploader:  u,
		notifier:  n,

		runID: opts.runID,

		log: l.With("run", opts.runID),
	}, nil
}

// RunID returns the identifier of this run.
func (r Runner) RunID() string {
	return r.runID
}

// Run drives the stages in order and publishes the outcome.
//
// The returned error is nil exactly when the pipeline succeeded. A failure to
// publish the notification is logged but does not fail the run.
func (r Runner) Run(ctx context.Context) (Outcome, error) {
	r.log.Info("Run started")
	start := time.Now()

	out := r.execute(ctx)
	r.notify(ctx, out)

	if !out.Success {
		return out, fmt.Errorf("run failed at the %s stage: %w", out.Stage, out.Err)
	}

	r.log.Info("Run completed", "duration", time.Since(start), "records", out.Records, "location", out.Location)
	return out, nil
}

// execute moves through the pipeline stages, stopping at the first failure.
func (r Runner) execute(ctx context.Context) Outcome {
	start := time.Now()
	recs, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return Outcome{Stage: StageFetch, Err: err}
	}
	r.log.Info("Stage completed", "stage", StageFetch, "duration", time.Since(start), "records", len(recs))

	start = time.Now()
	batch := r.processor.Transform(recs)
	payload, err := r.processor.Encode(batch)
	if err != nil {
		return Outcome{Stage: StageTransform, Err: err}
	}
	r.log.Info("Stage completed", "stage", StageTransform, "duration", time.Since(start), "records", batch.Len(), "bytes", len(payload))

	start = time.Now()
	location, err := r.uploader.Upload(ctx, payload)
	if err != nil {
		return Outcome{Stage: StageUpload, Err: err}
	}
	r.log.Info("Stage completed", "stage", StageUpload, "duration", time.Since(start), "location", location)

	return Outcome{Success: true, Location: location, Records: batch.Len()}
}

// notify publishes the outcome. The notification still goes out when the run
// was cut short by the host deadline, within the notifier timeout.
func (r Runner) notify(ctx context.Context, out Outcome) {
	ctx = context.WithoutCancel(ctx)

	var err error
	if out.Success {
		err = r.notifier.NotifySuccess(ctx, notifier.Success{Location: out.Location, Records: out.Records})
	} else {
		err = r.notifier.NotifyFailure(ctx, notifier.Failure{Stage: out.Stage, Cause: out.Err.Error()})
	}
	if err != nil {
		r.log.Warn("Failed to publish the outcome notification", "stage", StageNotify, "error", err)
	}
}
