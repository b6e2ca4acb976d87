// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package uri

import "strconv"

// An InvalidURIError reports a literal URI which could not be parsed or
// a URI component which is out of range.
type InvalidURIError struct {
	URI    string
	Reason string
}

func (e *InvalidURIError) Error() string {
	return "apiconn/uri: invalid URI " + strconv.Quote(e.URI) + ": " + e.Reason
}
