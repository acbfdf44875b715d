// Package commands contains the commands of the feedsnap command line tool.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/feedsnap/feedsnap/internal/cli"
	"github.com/feedsnap/feedsnap/internal/config"
	"github.com/feedsnap/feedsnap/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// App encapsulates the commands and the configuration of the application.
type App struct {
	cmd   *cobra.Command
	viper *viper.Viper

	config config.Config

	newS3Client  newS3Client
	newSNSClient newSNSClient
}

type options struct {
	newS3Client  newS3Client
	newSNSClient newSNSClient
}

var defaultOptions = options{
	newS3Client:  defaultS3Client,
	newSNSClient: defaultSNSClient,
}

// Options represents an optional function to override App default values.
type Options func(*options)

// New registers commands and returns a new App.
func New(args ...Options) (*App, error) {
	opts := defaultOptions
	for _, opt := range args {
		opt(&opts)
	}

	a := App{
		newS3Client:  opts.newS3Client,
		newSNSClient: opts.newSNSClient,
	}
	a.cmd = &cobra.Command{
		Use:           constants.CmdName,
		Short:         "One shot pipeline from a JSON API to an object store",
		Long:          "Feedsnap fetches records from a JSON API, projects them onto a fixed set of fields, uploads the result to an object store and publishes a notification describing the outcome.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			cli.SetVerbosity(a.config.Verbosity) // Set verbosity before loading config
			if err := cli.InitViperConfig(constants.CmdName, a.cmd, a.viper, config.EnvAliases); err != nil {
				return err
			}
			if err := a.viper.Unmarshal(&a.config); err != nil {
				return fmt.Errorf("unable to strictly decode configuration into struct: %w", err)
			}
			slog.Info("got app config", "config", a.config)

			cli.SetVerbosity(a.config.Verbosity)
			return nil
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	installRootCmd(&a)
	cli.InstallConfigFlag(a.cmd)

	if err := a.viper.BindPFlags(a.cmd.PersistentFlags()); err != nil {
		return nil, err
	}

	installRunCmd(&a)
	a.installVersion()

	return &a, nil
}

func installRootCmd(app *App) {
	cmd := app.cmd

	cmd.PersistentFlags().CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
}

// Run executes the command and associated process, returning an error if any.
func (a App) Run() error {
	return a.cmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// RootCmd returns a copy of the root command for the app. Shouldn't be in general necessary aside when running generators.
func (a App) RootCmd() cobra.Command {
	return *a.cmd
}
