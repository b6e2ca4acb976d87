// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package cli implements the apiconn command line tool.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/gogama/apiconn"
	"github.com/gogama/apiconn/auth"
	"github.com/gogama/apiconn/config"
	"github.com/gogama/apiconn/metrics"
)

// GlobalOptions holds the options shared by every command.
type GlobalOptions struct {
	ConfigFiles []string
	EnvFile     string
	Metrics     bool

	registry *prometheus.Registry
}

// NewRootCommand creates the apiconn command and its subcommands.
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:   "apiconn",
		Short: "Send requests to an HTTP API with retries and authentication",
		Long: `apiconn sends requests to an HTTP API through a request manager
assembled from configuration files and APICONN_ environment variables.

Relative request URIs are resolved against the configured base URI.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadEnvFile(opts.EnvFile)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if !opts.Metrics || opts.registry == nil {
				return nil
			}
			return writeMetrics(cmd.ErrOrStderr(), opts.registry)
		},
	}

	cmd.PersistentFlags().StringArrayVarP(&opts.ConfigFiles, "config", "c", nil, "YAML configuration file (repeatable, later files win)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "Environment file loaded before configuration")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "Print Prometheus metrics to stderr on exit")

	cmd.AddCommand(
		NewSendCommand(opts),
		NewBatchCommand(opts),
		NewConfigCommand(opts),
	)

	return cmd
}

// manager loads the configuration and assembles a manager with a
// metrics collector installed.
func (opts *GlobalOptions) manager() (*apiconn.Manager, *config.Config, error) {
	cfg, err := config.Load(opts.ConfigFiles...)
	if err != nil {
		return nil, nil, err
	}
	opts.registry = prometheus.NewRegistry()
	m, err := apiconn.Assemble(cfg, auth.NewRegistry(), metrics.NewCollector(opts.registry))
	if err != nil {
		return nil, nil, err
	}
	return m, cfg, nil
}

// loadEnvFile loads path into the environment without overriding
// variables which are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	mfs, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
