package notifier

import (
	"context"
	"log/slog"

	"github.com/feedsnap/feedsnap/internal/constants"
)

// Log records the outcome in the log instead of publishing it.
// It stands in for SNS on dry runs.
type Log struct {
	log *slog.Logger
}

// NewLog returns a new Log notifier.
func NewLog(l *slog.Logger) Log {
	return Log{log: l}
}

// NotifySuccess logs a completed run.
func (n Log) NotifySuccess(ctx context.Context, s Success) error {
	n.log.Info("Dry run notification", "subject", constants.SuccessSubject, "records", s.Records, "location", s.Location)
	return nil
}

// NotifyFailure logs where a run stopped and why.
func (n Log) NotifyFailure(ctx context.Context, f Failure) error {
	n.log.Info("Dry run notification", "subject", constants.FailureSubject, "stage", f.Stage, "cause", f.Cause)
	return nil
}
