// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package uri contains the two URI value types used to address an API,
URI and BaseURI, and the reference resolution algorithm which merges
them.

A URI is a general purpose, immutable URI reference. It may be absolute
("https://api.example.com/v2/users?page=2") or relative ("users/42",
"/users", "?page=2"). Every modifier returns a copy:

	u, err := uri.Parse("https://api.example.com/v2/users")
	...
	u = u.WithQuery("page=2").WithFragment("top")

A BaseURI is the restricted form used as the root against which
relative request targets are resolved. It only carries a scheme,
user-info, host, port and path. Any query or fragment in its input is
dropped at construction time, so a BaseURI can always be used as a
merge target:

	base, err := uri.ParseBase("https://api.example.com/v2/")
	...
	u := uri.Resolve(base, uri.MustParse("users/42"))
	// u.String() == "https://api.example.com/v2/users/42"

Resolve implements RFC 3986 section 5.3, and RemoveDotSegments
implements RFC 3986 section 5.2.4.

Paths, queries and fragments are percent-encoded on the way in: any
byte outside the unreserved and sub-delimiter sets (plus ':', '@' and
'/', and '?' for queries and fragments) is encoded, as is any '%' that
does not start a valid escape. Valid escapes are left untouched, so
encoding is idempotent.
*/
package uri
