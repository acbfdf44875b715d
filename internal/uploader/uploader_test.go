package uploader_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/feedsnap/feedsnap/internal/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errThrottled = &smithy.GenericAPIError{Code: "SlowDown", Message: "please slow down"}
	errDenied    = &smithy.GenericAPIError{Code: "AccessDenied", Message: "access denied"}
	errConn      = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
)

type mockS3 struct {
	failures int // number of leading calls answered with err
	err      error

	mu        sync.Mutex
	calls     int
	lastInput *s3.PutObjectInput
	lastBody  []byte
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.calls <= m.failures {
		return nil, m.err
	}

	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.lastInput = params
	m.lastBody = body
	return &s3.PutObjectOutput{}, nil
}

// hangingS3 blocks every call until the attempt context expires.
type hangingS3 struct {
	mu    sync.Mutex
	calls int
}

func (m *hangingS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func TestNewS3(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		nilClient bool
		bucket    string
		key       string

		wantErr bool
	}{
		"Instantiates with a bucket and key": {bucket: "feeds", key: "products.tsv"},

		// Error cases
		"Rejects a nil client":    {nilClient: true, bucket: "feeds", key: "products.tsv", wantErr: true},
		"Rejects an empty bucket": {key: "products.tsv", wantErr: true},
		"Rejects an empty key":    {bucket: "feeds", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var client uploader.S3Client
			if !tc.nilClient {
				client = &mockS3{}
			}
			_, err := uploader.NewS3(slog.Default(), client, tc.bucket, tc.key)
			if tc.wantErr {
				require.Error(t, err, "NewS3 should return an error")
				return
			}
			require.NoError(t, err, "NewS3 should not return an error")
		})
	}
}

func TestUpload(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		failures int
		err      error

		wantCalls int
		wantErr   bool
	}{
		"Uploads on the first attempt":     {wantCalls: 1},
		"Recovers after throttling":        {failures: 2, err: errThrottled, wantCalls: 3},
		"Recovers after connection errors": {failures: 1, err: errConn, wantCalls: 2},

		// Error cases
		"Exhausts attempts when throttled persistently": {failures: 10, err: errThrottled, wantCalls: 3, wantErr: true},
		"Stops immediately when access is denied":       {failures: 10, err: errDenied, wantCalls: 1, wantErr: true},
		"Stops immediately on unclassified errors":      {failures: 10, err: errors.New("boom"), wantCalls: 1, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			client := &mockS3{failures: tc.failures, err: tc.err}
			u, err := uploader.NewS3(slog.Default(), client, "feeds", "exports/products.tsv",
				uploader.WithMetadata(map[string]string{"run-id": "test-run"}),
				uploader.WithMaxAttempts(3),
				uploader.WithBaseRetryPeriod(time.Millisecond),
				uploader.WithMaxRetryPeriod(5*time.Millisecond))
			require.NoError(t, err, "Setup: failed to create uploader")

			payload := []byte("id\ttitle\n1\tA\n")
			location, err := u.Upload(context.Background(), payload)

			client.mu.Lock()
			assert.Equal(t, tc.wantCalls, client.calls, "the S3 API should see the expected number of calls")
			client.mu.Unlock()

			if tc.wantErr {
				require.Error(t, err, "Upload should return an error")
				require.ErrorIs(t, err, uploader.ErrUploadFailed, "error should be an upload failure")
				require.ErrorIs(t, err, tc.err, "error should carry the S3 failure")
				return
			}
			require.NoError(t, err, "Upload should not return an error")
			assert.Equal(t, "s3://feeds/exports/products.tsv", location, "Upload should return the object location")

			require.NotNil(t, client.lastInput, "the S3 API should have received the object")
			assert.Equal(t, "feeds", aws.ToString(client.lastInput.Bucket), "object should go to the configured bucket")
			assert.Equal(t, "exports/products.tsv", aws.ToString(client.lastInput.Key), "object should go to the configured key")
			assert.Equal(t, "text/plain", aws.ToString(client.lastInput.ContentType), "object should carry the payload content type")
			assert.Equal(t, map[string]string{"run-id": "test-run"}, client.lastInput.Metadata, "object should carry the configured metadata")
			assert.Equal(t, payload, client.lastBody, "object body should be the payload, even after retries")
		})
	}
}

func TestUploadTimesOutHangingAttempts(t *testing.T) {
	t.Parallel()

	client := &hangingS3{}
	u, err := uploader.NewS3(slog.Default(), client, "feeds", "exports/products.tsv",
		uploader.WithMaxAttempts(2),
		uploader.WithBaseRetryPeriod(time.Millisecond),
		uploader.WithMaxRetryPeriod(5*time.Millisecond),
		uploader.WithResponseTimeout(20*time.Millisecond))
	require.NoError(t, err, "Setup: failed to create uploader")

	start := time.Now()
	_, err = u.Upload(context.Background(), []byte("id\ttitle\n1\tA\n"))
	require.Error(t, err, "Upload should return an error")
	require.ErrorIs(t, err, uploader.ErrUploadFailed, "error should be an upload failure")
	require.ErrorIs(t, err, context.DeadlineExceeded, "error should carry the attempt timeout")

	client.mu.Lock()
	calls := client.calls
	client.mu.Unlock()
	assert.Equal(t, 2, calls, "each timed out attempt should count against the budget")
	assert.Less(t, time.Since(start), 5*time.Second, "the per attempt timeout should cut hanging uploads short")
}
