// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transport defines the raw send capability used by the request
// manager, Transport, and provides an implementation over net/http,
// HTTP.
//
// A Transport makes exactly one attempt per request. Retries,
// authentication, and base URI resolution all happen above it, in the
// request manager.
package transport
