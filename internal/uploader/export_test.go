package uploader

import "time"

// WithMaxAttempts sets the attempt budget for the S3 uploader.
func WithMaxAttempts(n int) Options {
	return func(o *options) {
		o.policy.MaxAttempts = n
	}
}

// WithBaseRetryPeriod sets the initial retry period for the S3 uploader, for exponential backoff retries.
func WithBaseRetryPeriod(d time.Duration) Options {
	return func(o *options) {
		o.policy.BaseDelay = d
	}
}

// WithMaxRetryPeriod sets the maximum retry period for the S3 uploader, for exponential backoff retries.
func WithMaxRetryPeriod(d time.Duration) Options {
	return func(o *options) {
		o.policy.MaxDelay = d
	}
}

// WithResponseTimeout sets the timeout for each upload attempt.
func WithResponseTimeout(d time.Duration) Options {
	return func(o *options) {
		o.timeout = d
	}
}
