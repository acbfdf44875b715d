// Package constants is responsible for defining the constants used in the application.
package constants

import (
	"log/slog"
	"time"
)

var (
	// Version is the version of the application.
	Version = "Dev"
)

const (
	// CmdName is the name of the command line tool.
	CmdName = "feedsnap"

	// DefaultLogLevel is the default log level selected without any verbosity flags.
	DefaultLogLevel = slog.LevelWarn

	// PayloadContentType is the content type of the serialized batch written to the object store.
	PayloadContentType = "text/plain"

	// DefaultFetchAttempts is the total number of source request attempts per invocation.
	DefaultFetchAttempts = 3

	// DefaultFetchTimeout is the per attempt timeout for the source request.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultFetchBackoff is the base delay between source request attempts.
	DefaultFetchBackoff = 2 * time.Second

	// DefaultUploadAttempts is the total number of object write attempts per invocation.
	DefaultUploadAttempts = 3

	// DefaultUploadTimeout is the per attempt timeout for the object write.
	DefaultUploadTimeout = 30 * time.Second

	// DefaultUploadBackoff is the base delay between object write attempts.
	DefaultUploadBackoff = 5 * time.Second

	// DefaultMaxBackoff caps the delay between retry attempts.
	DefaultMaxBackoff = 30 * time.Second

	// DefaultNotifyTimeout is the timeout for the outcome publish call.
	DefaultNotifyTimeout = 10 * time.Second

	// SuccessSubject is the subject line of a success notification.
	SuccessSubject = "Data Pipeline Success Notification"

	// FailureSubject is the subject line of a failure notification.
	FailureSubject = "Data Pipeline Failure Notification"

	// DefaultDryRunDir is the directory dry-run invocations write objects under.
	DefaultDryRunDir = "feedsnap-out"

	// DefaultObjectKey is the object key dry-run invocations write to when none is configured.
	DefaultObjectKey = "export.tsv"
)
