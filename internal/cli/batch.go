// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/gogama/apiconn"
	"github.com/gogama/apiconn/request"
)

// A BatchEntry describes one request of a batch file.
type BatchEntry struct {
	Method     string            `koanf:"method"`
	URI        string            `koanf:"uri"`
	Body       string            `koanf:"body"`
	Headers    map[string]string `koanf:"headers"`
	Anonymous  bool              `koanf:"anonymous"`
	MaxRetries *int              `koanf:"max_retries"`
	Tag        string            `koanf:"tag"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Send a keyed batch of requests described in a YAML file",
		Long: `Sends every request of a batch file together and prints one line per
key with the final status and body size. The file maps keys to requests:

  requests:
    user:
      uri: users/42
    create:
      method: POST
      uri: users
      body: '{"name":"x"}'
      headers:
        Content-Type: application/json
      max_retries: 1

Keys must not contain dots.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := LoadBatch(args[0])
			if err != nil {
				return err
			}
			m, _, err := global.manager()
			if err != nil {
				return err
			}
			return runBatch(cmd, m, entries)
		},
	}

	return cmd
}

// LoadBatch reads the batch file at path.
func LoadBatch(path string) (map[string]BatchEntry, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading batch %s: %w", path, err)
	}
	var entries map[string]BatchEntry
	if err := k.Unmarshal("requests", &entries); err != nil {
		return nil, fmt.Errorf("decoding batch %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("batch %s has no requests", path)
	}
	return entries, nil
}

func runBatch(cmd *cobra.Command, s apiconn.BatchSender, entries map[string]BatchEntry) error {
	reqs := make(map[string]*request.Request, len(entries))
	opts := make(map[string][]apiconn.Option, len(entries))
	for key, e := range entries {
		headers := make([]string, 0, len(e.Headers))
		for name, value := range e.Headers {
			headers = append(headers, name+": "+value)
		}
		r, err := buildRequest(e.Method, e.URI, e.Body, headers)
		if err != nil {
			return fmt.Errorf("request %q: %w", key, err)
		}
		reqs[key] = r
		opts[key] = e.options()
	}

	out, err := s.SendAll(cmd.Context(), reqs, opts)
	var batchErr *apiconn.BatchError
	if err != nil && !errors.As(err, &batchErr) {
		return err
	}
	if werr := printBatch(cmd.OutOrStdout(), out, batchErr); werr != nil {
		return werr
	}
	return err
}

func (e BatchEntry) options() []apiconn.Option {
	o := []apiconn.Option{apiconn.WithAnonymous(e.Anonymous)}
	if e.MaxRetries != nil {
		o = append(o, apiconn.WithMaxRetries(*e.MaxRetries))
	}
	if e.Tag != "" {
		o = append(o, apiconn.WithTag(e.Tag))
	}
	return o
}

func printBatch(w io.Writer, out map[string]*request.Response, batchErr *apiconn.BatchError) error {
	keys := make([]string, 0, len(out))
	for k := range out {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var err error
		if resp := out[k]; resp != nil {
			_, err = fmt.Fprintf(w, "%s\t%s\t%d bytes\n", k, resp, len(resp.Body()))
		} else if batchErr != nil {
			_, err = fmt.Fprintf(w, "%s\terror\t%v\n", k, batchErr.Errs[k])
		}
		if err != nil {
			return err
		}
	}
	return nil
}
