// Package uploader is the implementation of the upload stage.
// The upload stage stores the serialized payload at the configured
// destination, either an S3 bucket or a local directory for dry runs.
// Uploads overwrite whatever is already stored at the destination.
package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/feedsnap/feedsnap/internal/constants"
	"github.com/feedsnap/feedsnap/internal/retry"
)

// ErrUploadFailed is returned when the payload could not be stored at the
// destination, either because the attempt budget ran out or because of a
// non-retryable failure.
var ErrUploadFailed = errors.New("upload failed")

// S3Client is the subset of the S3 API needed to store payloads.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores payloads as objects in an S3 bucket.
type S3 struct {
	client S3Client
	bucket string
	key    string

	metadata map[string]string
	timeout  time.Duration
	policy   retry.Policy

	log *slog.Logger
}

type options struct {
	metadata map[string]string
	timeout  time.Duration
	policy   retry.Policy
}

var defaultOptions = options{
	timeout: constants.DefaultUploadTimeout,
	policy: retry.Policy{
		MaxAttempts: constants.DefaultUploadAttempts,
		BaseDelay:   constants.DefaultUploadBackoff,
		MaxDelay:    constants.DefaultMaxBackoff,
	},
}

// Options represents an optional function to override S3 uploader default values.
type Options func(*options)

// WithMetadata sets the metadata attached to the uploaded object.
func WithMetadata(m map[string]string) Options {
	return func(o *options) {
		o.metadata = m
	}
}

// NewS3 returns a new S3 uploader storing payloads under the given bucket and key.
//
// The retry budget is owned by the uploader, so the client should be
// configured with aws.NopRetryer to keep the SDK from retrying on its own.
func NewS3(l *slog.Logger, client S3Client, bucket, key string, args ...Options) (S3, error) {
	l.Debug("Creating new S3 uploader", "bucket", bucket, "key", key)

	if client == nil {
		return S3{}, errors.New("S3 client cannot be nil")
	}
	if bucket == "" {
		return S3{}, errors.New("bucket cannot be an empty string")
	}
	if key == "" {
		return S3{}, errors.New("key cannot be an empty string")
	}

	opts := defaultOptions
	for _, opt := range args {
		opt(&opts)
	}

	return S3{
		client: client,
		bucket: bucket,
		key:    key,

		metadata: opts.metadata,
		timeout:  opts.timeout,
		policy:   opts.policy,

		log: l,
	}, nil
}

// Upload stores the payload at the configured object location, replacing any
// previous object. The last successful upload wins.
//
// Throttling, server side failures, timeouts and connection errors are retried
// with an exponential backoff and full jitter until the attempt budget runs
// out. Any other failure, such as a missing bucket or denied access, stops the
// attempts immediately.
func (u S3) Upload(ctx context.Context, payload []byte) (string, error) {
	u.log.Debug("Uploading payload", "bucket", u.bucket, "key", u.key, "bytes", len(payload))

	err := retry.Do(ctx, u.log, u.policy, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, u.timeout)
		defer cancel()

		_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.bucket),
			Key:         aws.String(u.key),
			Body:        bytes.NewReader(payload),
			ContentType: aws.String(constants.PayloadContentType),
			Metadata:    u.metadata,
		})
		return err
	}, transient)
	if err != nil {
		return "", errors.Join(ErrUploadFailed, err)
	}

	location := u.Location()
	u.log.Info("Payload uploaded", "location", location, "bytes", len(payload))
	return location, nil
}

// Location returns the object location uploads are stored at.
func (u S3) Location() string {
	return fmt.Sprintf("s3://%s/%s", u.bucket, u.key)
}

// transient reports whether another attempt at storing the object may succeed.
func transient(err error) bool {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "SlowDown", "Throttling", "ThrottlingException", "RequestLimitExceeded",
			"RequestTimeout", "InternalError", "ServiceUnavailable":
			return true
		}
		return false
	}

	var ne net.Error
	return errors.As(err, &ne)
}
