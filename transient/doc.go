// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies transport errors as transient or
// non-transient. The request manager's default retry policy retries
// transient errors within the retry budget, and the metrics collector
// uses the category name as a label.
//
// The package depends only on the standard library.
package transient
