// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package auth defines the Authenticator capability used by the request
manager to decorate outgoing requests with credentials and to react to
authentication challenges, along with the Chain and Registry types used
to assemble authenticators.

An Authenticator is used in two ways. Before each attempt, the manager's
authentication handler calls Apply with a nil response to decorate the
request. After each response, the handler asks the Chain for the first
authenticator which Supports the response and calls its Apply with the
response. If the reaction produces a request that differs from the one
just sent, it becomes the next attempt and the retry budget starts
over:

	chain := &auth.Chain{}
	chain.Register(auth.NewBearer(src, 30*time.Second))

Authenticators are usually named in configuration and instantiated at
assembly time through a Registry:

	reg := auth.NewRegistry()
	reg.Register("basic", func() (auth.Authenticator, error) {
		return auth.Basic{Username: "u", Password: "p"}, nil
	})
	a, err := reg.Resolve("basic")
*/
package auth
