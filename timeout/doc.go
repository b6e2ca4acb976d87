// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for setting the timeout on each
// individual HTTP request attempt made by the HTTP transport. A generic
// interface for timeout policies is provided, Policy, along with a few
// policy generating functions and built-in policies.
package timeout
