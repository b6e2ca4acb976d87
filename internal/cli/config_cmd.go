// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogama/apiconn"
	"github.com/gogama/apiconn/auth"
	"github.com/gogama/apiconn/config"
)

// NewConfigCommand creates the config command, which prints the
// effective configuration with secrets masked.
func NewConfigCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(global.ConfigFiles...)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "base_uri: %s\n", cfg.BaseURI)
			fmt.Fprintf(w, "max_retries: %d\n", cfg.MaxRetries)
			fmt.Fprintf(w, "authenticator.default: %s\n", cfg.Authenticator.Default)
			fmt.Fprintf(w, "authenticator.chain: [%s]\n", strings.Join(cfg.Authenticator.Chain, ", "))
			fmt.Fprintf(w, "transport.timeout: %s\n", cfg.Transport.Timeout)
			fmt.Fprintf(w, "transport.concurrency: %d\n", cfg.Transport.Concurrency)
			fmt.Fprintf(w, "transport.rate_limit: %g\n", cfg.Transport.RateLimit)
			fmt.Fprintf(w, "transport.burst: %d\n", cfg.Transport.Burst)
			fmt.Fprintf(w, "transport.racing.offsets: %v\n", cfg.Transport.Racing.Offsets)
			fmt.Fprintf(w, "transport.racing.max_per_second: %d\n", cfg.Transport.Racing.MaxPerSecond)
			fmt.Fprintf(w, "log.level: %s\n", cfg.Log.Level)
			fmt.Fprintf(w, "auth.basic.username: %s\n", cfg.Auth.Basic.Username)
			fmt.Fprintf(w, "auth.basic.password: %s\n", mask(cfg.Auth.Basic.Password))
			fmt.Fprintf(w, "auth.bearer.token: %s\n", mask(cfg.Auth.Bearer.Token))
			fmt.Fprintf(w, "auth.bearer.leeway: %s\n", cfg.Auth.Bearer.Leeway)
			fmt.Fprintf(w, "registered: [%s]\n", strings.Join(registered(cfg), ", "))
			return nil
		},
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}

// registered lists the authenticator ids an assembled manager would
// know about.
func registered(cfg *config.Config) []string {
	ids := auth.NewRegistry().IDs()
	if cfg.Auth.Basic.Username != "" {
		ids = append(ids, apiconn.BasicID)
	}
	if cfg.Auth.Bearer.Token != "" {
		ids = append(ids, apiconn.BearerID)
	}
	return ids
}
