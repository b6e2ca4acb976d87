// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/http/httpguts"

	"github.com/gogama/apiconn"
	"github.com/gogama/apiconn/request"
)

// SendOptions holds the options of the send command.
type SendOptions struct {
	Method     string
	Data       string
	Headers    []string
	Anonymous  bool
	MaxRetries int
	NoFail     bool
	Tag        string
	Include    bool
}

// NewSendCommand creates the send command.
func NewSendCommand(global *GlobalOptions) *cobra.Command {
	opts := &SendOptions{}

	cmd := &cobra.Command{
		Use:   "send URI",
		Short: "Send one request and print the response body",
		Example: `  # GET relative to the configured base URI
  apiconn send users/42

  # POST JSON with a header
  apiconn send -X POST -H 'Content-Type: application/json' -d '{"name":"x"}' users`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := global.manager()
			if err != nil {
				return err
			}
			return runSend(cmd, m, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Method, "method", "X", "GET", "HTTP method")
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "Request body")
	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	cmd.Flags().BoolVar(&opts.Anonymous, "anonymous", false, "Skip authentication")
	cmd.Flags().IntVar(&opts.MaxRetries, "max-retries", -1, "Retry budget (default from configuration)")
	cmd.Flags().BoolVar(&opts.NoFail, "no-fail", false, "Print a failure response instead of returning an error")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "Tag logged with the send")
	cmd.Flags().BoolVarP(&opts.Include, "include", "i", false, "Print the status line and headers")

	return cmd
}

func runSend(cmd *cobra.Command, s apiconn.Sender, rawURI string, opts *SendOptions) error {
	r, err := buildRequest(opts.Method, rawURI, opts.Data, opts.Headers)
	if err != nil {
		return err
	}

	resp, err := s.Send(cmd.Context(), r, opts.options()...)
	var bad *apiconn.BadAPIResponseError
	if err != nil && !errors.As(err, &bad) {
		return err
	}
	if resp != nil {
		if werr := printResponse(cmd.OutOrStdout(), resp, opts.Include); werr != nil {
			return werr
		}
	}
	return err
}

func (opts *SendOptions) options() []apiconn.Option {
	o := []apiconn.Option{
		apiconn.WithAnonymous(opts.Anonymous),
		apiconn.WithExceptions(!opts.NoFail),
	}
	if opts.MaxRetries >= 0 {
		o = append(o, apiconn.WithMaxRetries(opts.MaxRetries))
	}
	if opts.Tag != "" {
		o = append(o, apiconn.WithTag(opts.Tag))
	}
	return o
}

func buildRequest(method, rawURI, data string, headers []string) (*request.Request, error) {
	var body interface{}
	if data != "" {
		body = data
	}
	r, err := request.NewRequest(strings.ToUpper(method), rawURI, body)
	if err != nil {
		return nil, err
	}
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
			return nil, fmt.Errorf("invalid header %q: want 'Name: value'", h)
		}
		r = r.WithHeader(name, value)
	}
	return r, nil
}

func printResponse(w io.Writer, resp *request.Response, include bool) error {
	if include {
		if _, err := fmt.Fprintln(w, resp.String()); err != nil {
			return err
		}
		if err := resp.Header().Write(w); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	_, err := w.Write(resp.Body())
	return err
}
