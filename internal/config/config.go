// Package config defines the pipeline configuration shared by the command
// line and Lambda entry points.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedsnap/feedsnap/internal/cli"
	"github.com/feedsnap/feedsnap/internal/constants"
	"github.com/feedsnap/feedsnap/internal/processor"
	"github.com/spf13/viper"
)

// EnvAliases maps configuration keys onto the bare environment variables
// commonly provisioned on serverless hosts.
var EnvAliases = map[string]string{
	"api.url":   "API_URL",
	"s3.bucket": "S3_BUCKET",
	"s3.key":    "S3_KEY",
	"sns.topic": "SNS_TOPIC_ARN",
}

// Config holds the settings for a single pipeline run.
type Config struct {
	Verbosity int
	DryRun    bool
	Timeout   time.Duration

	API       API
	S3        S3
	SNS       SNS
	Transform Transform
	Output    Output
}

// API configures the fetch stage.
type API struct {
	URL string
}

// S3 configures the upload destination.
type S3 struct {
	Bucket string
	Key    string
}

// SNS configures the notification topic.
type SNS struct {
	Topic string
}

// Transform configures the transform stage. Spec points at a TOML spec file
// and is authoritative over the inline field list.
type Transform struct {
	Fields []string
	Spec   string
}

// Output configures where dry runs write their payload.
type Output struct {
	Dir string
}

// Sanitize sets defaults and checks that the Config is properly configured.
//
// Dry runs write the payload to a local directory and log the notification,
// so the remote destinations are defaulted rather than required.
func (c *Config) Sanitize(l *slog.Logger) error {
	if c.API.URL == "" {
		return errors.New("an API URL must be provided")
	}

	if len(c.Transform.Fields) == 0 && c.Transform.Spec == "" {
		return errors.New("transform fields or a transform spec file must be provided")
	}

	if c.Timeout < 0 {
		return errors.New("the run timeout cannot be negative")
	}

	if c.DryRun {
		if c.Output.Dir == "" {
			c.Output.Dir = constants.DefaultDryRunDir
			l.Info("No output directory provided, defaulting to", "dir", c.Output.Dir)
		}
		if c.S3.Bucket == "" {
			c.S3.Bucket = constants.CmdName
			l.Info("No bucket provided, defaulting to", "bucket", c.S3.Bucket)
		}
		if c.S3.Key == "" {
			c.S3.Key = constants.DefaultObjectKey
			l.Info("No object key provided, defaulting to", "key", c.S3.Key)
		}
		return nil
	}

	if c.S3.Bucket == "" {
		return errors.New("an S3 bucket must be provided")
	}
	if c.S3.Key == "" {
		return errors.New("an S3 object key must be provided")
	}
	if c.SNS.Topic == "" {
		return errors.New("an SNS topic ARN must be provided")
	}

	return nil
}

// TransformSpec resolves the transform spec for the run. A configured spec
// file wins over the inline field list.
func (c Config) TransformSpec() (processor.Spec, error) {
	if c.Transform.Spec != "" {
		return processor.LoadSpec(c.Transform.Spec)
	}
	return processor.Spec{Fields: c.Transform.Fields}, nil
}

// LoadEnv builds a Config from the environment alone, for hosts without a
// command line such as Lambda.
func LoadEnv() (Config, error) {
	vip := viper.New()
	if err := cli.BindEnvVariables(vip, constants.CmdName, EnvAliases); err != nil {
		return Config{}, err
	}

	var c Config
	if err := vip.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unable to strictly decode configuration into struct: %w", err)
	}
	return c, nil
}
