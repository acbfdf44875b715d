// Package notifier is the implementation of the notify stage.
// The notify stage publishes a single message describing how the run ended,
// to an SNS topic or to the log for dry runs.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/feedsnap/feedsnap/internal/constants"
)

// ErrNotifyFailed is returned when the outcome notification could not be published.
var ErrNotifyFailed = errors.New("notification failed")

// Success describes a run that uploaded its records.
type Success struct {
	Location string
	Records  int
}

// Failure describes a run that stopped at a stage.
type Failure struct {
	Stage string
	Cause string
}

// SNSClient is the subset of the SNS API needed to publish notifications.
type SNSClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS publishes outcome notifications to an SNS topic.
type SNS struct {
	client   SNSClient
	topicARN string

	runID   string
	timeout time.Duration

	log *slog.Logger
}

type options struct {
	runID   string
	timeout time.Duration
}

var defaultOptions = options{
	timeout: constants.DefaultNotifyTimeout,
}

// Options represents an optional function to override SNS notifier default values.
type Options func(*options)

// WithRunID sets the run identifier included in the notification body.
func WithRunID(id string) Options {
	return func(o *options) {
		o.runID = id
	}
}

// NewSNS returns a new SNS notifier publishing to the given topic.
func NewSNS(l *slog.Logger, client SNSClient, topicARN string, args ...Options) (SNS, error) {
	l.Debug("Creating new SNS notifier", "topic", topicARN)

	if client == nil {
		return SNS{}, errors.New("SNS client cannot be nil")
	}
	if topicARN == "" {
		return SNS{}, errors.New("topic ARN cannot be an empty string")
	}
	if !strings.HasPrefix(topicARN, "arn:") {
		return SNS{}, fmt.Errorf("invalid topic ARN %q", topicARN)
	}

	opts := defaultOptions
	for _, opt := range args {
		opt(&opts)
	}

	return SNS{
		client:   client,
		topicARN: topicARN,

		runID:   opts.runID,
		timeout: opts.timeout,

		log: l,
	}, nil
}

// NotifySuccess publishes a message describing a completed run.
// There is a single attempt, bounded by the notifier timeout.
func (n SNS) NotifySuccess(ctx context.Context, s Success) error {
	msg := fmt.Sprintf("The data pipeline completed successfully.\n\nRecords uploaded: %d\nLocation: %s\n", s.Records, s.Location)
	return n.publish(ctx, constants.SuccessSubject, msg)
}

// NotifyFailure publishes a message describing where a run stopped and why.
// There is a single attempt, bounded by the notifier timeout.
func (n SNS) NotifyFailure(ctx context.Context, f Failure) error {
	msg := fmt.Sprintf("The data pipeline failed at the %s stage.\n\nCause: %s\n", f.Stage, f.Cause)
	return n.publish(ctx, constants.FailureSubject, msg)
}

func (n SNS) publish(ctx context.Context, subject, message string) error {
	if n.runID != "" {
		message += fmt.Sprintf("Run ID: %s\n", n.runID)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	n.log.Debug("Publishing notification", "topic", n.topicARN, "subject", subject)
	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return errors.Join(ErrNotifyFailed, fmt.Errorf("failed to publish to %s: %v", n.topicARN, err))
	}

	n.log.Info("Notification published", "topic", n.topicARN, "subject", subject)
	return nil
}
