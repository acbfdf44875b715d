package commands

type (
	NewS3Client  = newS3Client
	NewSNSClient = newSNSClient
)

// SetArgs sets the arguments for the command.
func (a *App) SetArgs(args []string) {
	a.cmd.SetArgs(args)
}

// WithNewS3Client sets the S3 client constructor for the app.
func WithNewS3Client(n NewS3Client) Options {
	return func(o *options) {
		o.newS3Client = n
	}
}

// WithNewSNSClient sets the SNS client constructor for the app.
func WithNewSNSClient(n NewSNSClient) Options {
	return func(o *options) {
		o.newSNSClient = n
	}
}
