// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides policies that refine how the request manager
// retries within its retry budget.
//
// The manager itself decides when a non-OK response is retried: a
// response handler nominates the next attempt and the attempt counter
// is checked against MaxRetries. A Policy adds two things on top of
// that. Its Decider says whether a transport error (as opposed to a
// response) may be retried at all, and its Waiter says how long to
// pause before retrying an unchanged request:
//
//	policy := retry.NewPolicy(
//		retry.TransientErr.And(retry.Idempotent),
//		retry.NewExpWaiter(100*time.Millisecond, 2*time.Second, time.Now()),
//	)
//
// Fully custom behavior can be had with custom implementations of
// Decider, Waiter, or Policy.
package retry
