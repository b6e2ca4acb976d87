// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package apiconn provides a request manager for talking to REST-style
APIs: it resolves request targets against a base URI, authenticates
requests, reacts to authentication challenges, and retries failures
within a bounded budget, so that call sites need none of that logic.

Create a Manager to begin making requests.

	m := &apiconn.Manager{
		BaseURI: uri.MustParseBase("https://api.example.com/v2/"),
	}
	resp, err := m.Get(ctx, "users/42")
	...

Every logical send resolves its Options from built-in defaults, the
manager's Defaults, and the overrides passed to the call:

	resp, err := m.Send(ctx, r,
		apiconn.WithMaxRetries(5),
		apiconn.WithTag("nightly-sync"))

A send that ends with a non-OK response returns the response along with
a *BadAPIResponseError. Pass WithExceptions(false) to get the response
alone.

Requests are retried through event handlers. A Response handler
nominates the next attempt, which by default is the request just sent.
An unchanged request consumes the retry budget, MaxRetries. A different
request, such as one carrying a refreshed token, starts a new retry
chain with a fresh budget. Authentication is itself such a handler:

	bearer := auth.NewBearer(tokenSource, 30*time.Second)
	handlers := &apiconn.HandlerGroup{}
	(&apiconn.AuthHandler{Chain: auth.NewChain(bearer)}).Install(handlers)
	(&apiconn.RequestIDHandler{}).Install(handlers)
	m := &apiconn.Manager{
		DefaultAuthenticator: bearer,
		Handlers:             handlers,
	}

A manager is usually assembled from configuration loaded by package
config, with authenticators named through an auth.Registry:

	cfg, err := config.Load("apiconn.yaml")
	...
	m, err := apiconn.Assemble(cfg, auth.NewRegistry())

With transport.racing.offsets configured, the assembled transport races
staggered copies of idempotent requests. See package racing.

SendAll sends a keyed batch of requests through the transport's
ExecMultiple, applying the same lifecycle to every key.
*/
package apiconn
