package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/feedsnap/feedsnap/internal/fetcher"
	"github.com/feedsnap/feedsnap/internal/notifier"
	"github.com/feedsnap/feedsnap/internal/processor"
	"github.com/feedsnap/feedsnap/internal/runner"
	"github.com/feedsnap/feedsnap/internal/uploader"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type (
	newS3Client  func(ctx context.Context) (uploader.S3Client, error)
	newSNSClient func(ctx context.Context) (notifier.SNSClient, error)
)

func installRunCmd(app *App) {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once",
		Long: `Run the pipeline once.

Records are fetched from the API, transformed and uploaded to the object store. One notification describing the outcome is published at the end of the run, whether it succeeded or failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Info("Running run command")
			return app.runRun(cmd.Context())
		},
	}

	runCmd.Flags().StringVar(&app.config.API.URL, "api-url", "", "URL of the JSON API to fetch records from")
	runCmd.Flags().StringVar(&app.config.S3.Bucket, "bucket", "", "S3 bucket to upload the payload to")
	runCmd.Flags().StringVar(&app.config.S3.Key, "key", "", "S3 object key to upload the payload under")
	runCmd.Flags().StringVar(&app.config.SNS.Topic, "topic", "", "ARN of the SNS topic to publish the outcome to")
	runCmd.Flags().StringSliceVar(&app.config.Transform.Fields, "fields", nil, "fields to keep in the uploaded records")
	runCmd.Flags().StringVar(&app.config.Transform.Spec, "transform-spec", "", "path to a TOML transform spec, authoritative over --fields")
	runCmd.Flags().BoolVarP(&app.config.DryRun, "dry-run", "d", false, "write the payload to a local directory and log the notification instead of talking to AWS")
	runCmd.Flags().StringVar(&app.config.Output.Dir, "out-dir", "", "directory dry runs write the payload under")
	runCmd.Flags().DurationVar(&app.config.Timeout, "timeout", 0, "deadline for the whole run, 0 for none")

	err := runCmd.MarkFlagFilename("transform-spec", "toml")
	if err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to mark transform-spec flag as filename: %v", err))
	}

	err = runCmd.MarkFlagDirname("out-dir")
	if err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to mark out-dir flag as dirname: %v", err))
	}

	app.cmd.AddCommand(runCmd)
}

// runRun runs the run command.
func (a App) runRun(ctx context.Context) error {
	l := slog.Default()
	if err := a.config.Sanitize(l); err != nil {
		return err
	}

	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	spec, err := a.config.TransformSpec()
	if err != nil {
		return err
	}

	f, err := fetcher.New(l, a.config.API.URL)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %v", err)
	}

	p, err := processor.New(l, spec)
	if err != nil {
		return fmt.Errorf("failed to create processor: %v", err)
	}

	runID := uuid.NewString()
	u, n, err := a.destinations(ctx, l, runID)
	if err != nil {
		return err
	}

	r, err := runner.New(l, f, p, u, n, runner.WithRunID(runID))
	if err != nil {
		return fmt.Errorf("failed to create runner: %v", err)
	}

	_, err = r.Run(ctx)
	return err
}

// destinations builds the uploader and the notifier for the run. Dry runs
// stay local, writing the payload under the output directory and logging the
// notification instead of publishing it.
func (a App) destinations(ctx context.Context, l *slog.Logger, runID string) (runner.Uploader, runner.Notifier, error) {
	if a.config.DryRun {
		u, err := uploader.NewFileStore(l, a.config.Output.Dir, a.config.S3.Bucket, a.config.S3.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create uploader: %v", err)
		}
		return u, notifier.NewLog(l), nil
	}

	s3Client, err := a.newS3Client(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create S3 client: %v", err)
	}
	u, err := uploader.NewS3(l, s3Client, a.config.S3.Bucket, a.config.S3.Key,
		uploader.WithMetadata(map[string]string{"run-id": runID}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create uploader: %v", err)
	}

	snsClient, err := a.newSNSClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create SNS client: %v", err)
	}
	n, err := notifier.NewSNS(l, snsClient, a.config.SNS.Topic, notifier.WithRunID(runID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create notifier: %v", err)
	}

	return u, n, nil
}

// defaultS3Client builds an S3 client from the default AWS configuration.
// The pipeline owns the retry budget, so the SDK retryer is disabled.
func defaultS3Client(ctx context.Context) (uploader.S3Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %v", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Retryer = aws.NopRetryer{}
	}), nil
}

// defaultSNSClient builds an SNS client from the default AWS configuration.
func defaultSNSClient(ctx context.Context) (notifier.SNSClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %v", err)
	}

	return sns.NewFromConfig(cfg, func(o *sns.Options) {
		o.Retryer = aws.NopRetryer{}
	}), nil
}
