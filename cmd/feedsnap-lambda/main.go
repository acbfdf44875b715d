// Main package for the feedsnap Lambda function.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/feedsnap/feedsnap/internal/cli"
	"github.com/feedsnap/feedsnap/internal/config"
	"github.com/feedsnap/feedsnap/internal/fetcher"
	"github.com/feedsnap/feedsnap/internal/notifier"
	"github.com/feedsnap/feedsnap/internal/processor"
	"github.com/feedsnap/feedsnap/internal/runner"
	"github.com/feedsnap/feedsnap/internal/uploader"
	"github.com/google/uuid"
)

// Response is the invocation result reported to the Lambda host.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func main() {
	lambda.Start(handler)
}

// handler runs the pipeline once per invocation.
//
// The returned error is non nil exactly when the pipeline failed, which marks
// the invocation as failed for the host. A notification that could not be
// published does not fail the invocation on its own.
func handler(ctx context.Context) (Response, error) {
	cli.SetSlog(0, true) // JSON logs with default verbosity until the configuration is loaded

	cfg, err := config.LoadEnv()
	if err != nil {
		return failure(slog.Default(), err)
	}
	cli.SetSlog(cfg.Verbosity, true)
	l := slog.Default()

	// The local dry run mode is for the command line tool.
	cfg.DryRun = false
	if err := cfg.Sanitize(l); err != nil {
		return failure(l, err)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return failure(l, fmt.Errorf("failed to load AWS configuration: %v", err))
	}

	// The pipeline owns the retry budget, so the SDK retryer is disabled.
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) { o.Retryer = aws.NopRetryer{} })
	snsClient := sns.NewFromConfig(awsCfg, func(o *sns.Options) { o.Retryer = aws.NopRetryer{} })

	runID := uuid.NewString()
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		runID = lc.AwsRequestID
	}

	return run(ctx, l, cfg, s3Client, snsClient, runID)
}

// run builds the pipeline for the invocation and executes it.
func run(ctx context.Context, l *slog.Logger, cfg config.Config, s3Client uploader.S3Client, snsClient notifier.SNSClient, runID string) (Response, error) {
	spec, err := cfg.TransformSpec()
	if err != nil {
		return failure(l, err)
	}

	f, err := fetcher.New(l, cfg.API.URL)
	if err != nil {
		return failure(l, fmt.Errorf("failed to create fetcher: %v", err))
	}

	p, err := processor.New(l, spec)
	if err != nil {
		return failure(l, fmt.Errorf("failed to create processor: %v", err))
	}

	u, err := uploader.NewS3(l, s3Client, cfg.S3.Bucket, cfg.S3.Key,
		uploader.WithMetadata(map[string]string{"run-id": runID}))
	if err != nil {
		return failure(l, fmt.Errorf("failed to create uploader: %v", err))
	}

	n, err := notifier.NewSNS(l, snsClient, cfg.SNS.Topic, notifier.WithRunID(runID))
	if err != nil {
		return failure(l, fmt.Errorf("failed to create notifier: %v", err))
	}

	r, err := runner.New(l, f, p, u, n, runner.WithRunID(runID))
	if err != nil {
		return failure(l, fmt.Errorf("failed to create runner: %v", err))
	}

	out, err := r.Run(ctx)
	if err != nil {
		return failure(l, err)
	}

	return Response{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf("uploaded %d records to %s", out.Records, out.Location),
	}, nil
}

func failure(l *slog.Logger, err error) (Response, error) {
	l.Error(err.Error())
	return Response{StatusCode: http.StatusInternalServerError, Body: err.Error()}, err
}
