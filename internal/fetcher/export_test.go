package fetcher

import "time"

// WithMaxAttempts sets the attempt budget for the fetcher.
func WithMaxAttempts(n int) Options {
	return func(o *options) {
		o.policy.MaxAttempts = n
	}
}

// WithBaseRetryPeriod sets the initial retry period for the fetcher, for exponential backoff retries.
func WithBaseRetryPeriod(d time.Duration) Options {
	return func(o *options) {
		o.policy.BaseDelay = d
	}
}

// WithMaxRetryPeriod sets the maximum retry period for the fetcher, for exponential backoff retries.
func WithMaxRetryPeriod(d time.Duration) Options {
	return func(o *options) {
		o.policy.MaxDelay = d
	}
}

// WithResponseTimeout sets the per attempt timeout for the fetcher when waiting for a response from the API.
func WithResponseTimeout(d time.Duration) Options {
	return func(o *options) {
		o.timeout = d
	}
}
