// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apiconn

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/gogama/apiconn/auth"
	"github.com/gogama/apiconn/config"
	"github.com/gogama/apiconn/racing"
	"github.com/gogama/apiconn/timeout"
	"github.com/gogama/apiconn/transport"
	"github.com/gogama/apiconn/uri"
)

// Identifiers under which Assemble registers the credential-based
// authenticators described by the configuration.
const (
	BasicID  = "basic"
	BearerID = "bearer"
)

// Assemble builds a Manager from cfg.
//
// The transport is an HTTP transport over a fresh http.Client, with the
// configured timeout, concurrency, and rate limit. If racing offsets are
// configured, idempotent requests are raced through it by a
// racing.Transport. If cfg holds basic
// or bearer credentials, the matching authenticators are registered in
// reg under BasicID and BearerID, replacing anything registered there.
// The default authenticator and every chain entry are then resolved
// from reg, once per identifier. If reg is nil, auth.NewRegistry is used.
//
// The manager always gets a RequestIDHandler and an AuthHandler over the
// configured chain, in that order, followed by the extra installers.
// Its logger writes to standard error as configured by cfg.Log.
func Assemble(cfg *config.Config, reg *auth.Registry, extra ...Installer) (*Manager, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = auth.NewRegistry()
	}
	registerCredentials(cfg.Auth, reg)

	m := &Manager{
		Defaults: []Option{WithMaxRetries(cfg.MaxRetries)},
	}

	if cfg.BaseURI != "" {
		base, err := uri.ParseBase(cfg.BaseURI)
		if err != nil {
			return nil, fmt.Errorf("apiconn: base URI: %w", err)
		}
		m.BaseURI = base
	}

	// Each id is resolved once, so that the default authenticator and
	// its chain entry share state such as a cached token.
	resolved := make(map[string]auth.Authenticator)
	resolve := func(id string) (auth.Authenticator, error) {
		if a, ok := resolved[id]; ok {
			return a, nil
		}
		a, err := reg.Resolve(id)
		if err != nil {
			return nil, err
		}
		resolved[id] = a
		return a, nil
	}

	a, err := resolve(cfg.Authenticator.Default)
	if err != nil {
		return nil, err
	}
	m.DefaultAuthenticator = a

	chain := &auth.Chain{}
	for _, id := range cfg.Authenticator.Chain {
		a, err := resolve(id)
		if err != nil {
			return nil, err
		}
		chain.Register(a)
	}

	t := &transport.HTTP{
		Doer:        &http.Client{},
		Timeout:     timeout.Fixed(cfg.Transport.Timeout),
		Concurrency: cfg.Transport.Concurrency,
	}
	if cfg.Transport.RateLimit > 0 {
		burst := cfg.Transport.Burst
		if burst < 1 {
			burst = 1
		}
		t.Limiter = rate.NewLimiter(rate.Limit(cfg.Transport.RateLimit), burst)
	}
	m.Transport = racingTransport(t, cfg.Transport)

	handlers := &HandlerGroup{}
	(&RequestIDHandler{}).Install(handlers)
	(&AuthHandler{Chain: chain}).Install(handlers)
	for _, in := range extra {
		in.Install(handlers)
	}
	m.Handlers = handlers

	logger := cfg.Log.NewLogger(os.Stderr)
	m.Logger = &logger

	return m, nil
}

func registerCredentials(c config.AuthConfig, reg *auth.Registry) {
	if c.Basic.Username != "" {
		basic := auth.Basic{Username: c.Basic.Username, Password: c.Basic.Password}
		reg.Register(BasicID, func() (auth.Authenticator, error) {
			return basic, nil
		})
	}
	if c.Bearer.Token != "" {
		token, leeway := c.Bearer.Token, c.Bearer.Leeway
		reg.Register(BearerID, func() (auth.Authenticator, error) {
			return auth.NewBearer(auth.StaticToken(token), leeway), nil
		})
	}
}

func racingTransport(t transport.Transport, c config.TransportConfig) transport.Transport {
	if len(c.Racing.Offsets) == 0 {
		return t
	}
	starter := racing.AlwaysStart
	if c.Racing.MaxPerSecond > 0 {
		starter = racing.NewThrottleStarter(racing.Limit{MaxAttempts: c.Racing.MaxPerSecond, Period: time.Second})
	}
	scheduler := racing.OnlyIdempotent(racing.NewStaticScheduler(c.Racing.Offsets...))
	return &racing.Transport{
		Inner:       t,
		Policy:      racing.NewPolicy(scheduler, starter),
		Concurrency: c.Concurrency,
	}
}
