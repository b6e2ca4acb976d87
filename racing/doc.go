// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package racing provides a transport which races several copies of the
same request against each other, to smooth over pockets of bad server
response times.

Racing is a transport concern. The manager sees one attempt, with one
outcome, no matter how many copies raced to produce it, so the retry
budget and the event handlers are unaffected.

Racing raises the load on the remote service and is only safe for
requests which may be repeated. The Policy decides whether, and when, to
start each extra copy. Policy decisions are broken down into two steps,
scheduling and starting. Each time a copy starts, the Policy schedules
the next one. When the scheduled time comes, the Policy is asked again
whether the copy should really start, since circumstances may have
changed in the meantime.

The race ends when any copy produces a response, or fails with an error
which is not transient. The other copies are then cancelled as
Redundant. If every copy fails transiently, the last error wins.

Use NewStaticScheduler for a fixed offset schedule, OnlyIdempotent to
keep non-idempotent requests out of races, and NewThrottleStarter to
stop starting copies when too many have started recently. Use NewPolicy
to compose a scheduler and a starter.
*/
package racing
