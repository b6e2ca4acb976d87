// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apiconn

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/gogama/apiconn/auth"
	"github.com/gogama/apiconn/uri"
)

// DefaultMaxRetries is the default retry budget of a send.
const DefaultMaxRetries = 3

// Options control one logical send.
//
// Options are resolved fresh for every send: built-in defaults first,
// then the manager's defaults, then the overrides passed to Send.
type Options struct {
	// Anonymous disables authentication for the send.
	Anonymous bool

	// Retries counts the attempts made in the current retry chain. It
	// starts at zero and is reset to zero whenever a response handler
	// nominates a next attempt which differs from the request just
	// sent. There is no override for it.
	Retries int `validate:"gte=0"`

	// MaxRetries bounds the number of attempts in one retry chain.
	MaxRetries int `validate:"gte=0"`

	// Exceptions makes a failed send return a *BadAPIResponseError
	// along with the failure response. If false, the failure response
	// is returned with a nil error.
	Exceptions bool

	// Tag is an opaque value carried through the send for handlers and
	// logging.
	Tag interface{} `validate:"-"`

	// Authenticator decorates requests before they are sent. It is
	// ignored if Anonymous is true.
	Authenticator auth.Authenticator `validate:"-"`

	// BaseURI, if not nil, is the base against which request URIs are
	// resolved.
	BaseURI *uri.BaseURI `validate:"-"`
}

// An Option overrides one field of Options.
type Option func(*Options)

// WithAnonymous sets whether the send skips authentication.
func WithAnonymous(anonymous bool) Option {
	return func(o *Options) { o.Anonymous = anonymous }
}

// WithMaxRetries sets the retry budget.
func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

// WithExceptions sets whether a failed send returns an error.
func WithExceptions(exceptions bool) Option {
	return func(o *Options) { o.Exceptions = exceptions }
}

// WithTag attaches an opaque value to the send.
func WithTag(tag interface{}) Option {
	return func(o *Options) { o.Tag = tag }
}

// WithAuthenticator sets the authenticator used to decorate requests.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(o *Options) { o.Authenticator = a }
}

// WithBaseURI sets the base URI against which request URIs are
// resolved. A nil base disables resolution.
func WithBaseURI(base *uri.BaseURI) Option {
	return func(o *Options) { o.BaseURI = base }
}

var validate = validator.New()

func (m *Manager) resolveOptions(overrides []Option) (Options, error) {
	o := Options{
		MaxRetries:    DefaultMaxRetries,
		Exceptions:    true,
		Authenticator: m.DefaultAuthenticator,
		BaseURI:       m.BaseURI,
	}
	if o.Authenticator == nil {
		o.Authenticator = auth.Anonymous
	}
	for _, f := range m.Defaults {
		f(&o)
	}
	for _, f := range overrides {
		f(&o)
	}
	return o, o.validate()
}

func (o *Options) validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &InvalidOptionError{
				Option: fe.Field(),
				Value:  fe.Value(),
				Reason: fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param()),
			}
		}
		return &InvalidOptionError{Reason: err.Error()}
	}
	if o.Authenticator == nil {
		return &InvalidOptionError{Option: "Authenticator", Reason: "must not be nil"}
	}
	return nil
}
