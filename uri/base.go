// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package uri

// A BaseURI is the root against which relative request targets are
// resolved. It has a scheme, user-info, host, port and path, but never
// a query or fragment.
//
// The zero value is the empty base, against which every reference
// resolves to itself (with its dot segments removed).
type BaseURI struct {
	u URI
}

// ParseBase parses s into a BaseURI. The query and fragment of s, if
// any, are discarded. An error of type *InvalidURIError is returned if
// s cannot be parsed.
func ParseBase(s string) (*BaseURI, error) {
	u, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return NewBase(u), nil
}

// MustParseBase is like ParseBase but panics if s cannot be parsed.
func MustParseBase(s string) *BaseURI {
	b, err := ParseBase(s)
	if err != nil {
		panic(err)
	}
	return b
}

// NewBase returns the BaseURI formed from the scheme, authority and path
// of u.
func NewBase(u *URI) *BaseURI {
	b := &BaseURI{u: *u}
	b.u.query = ""
	b.u.fragment = ""
	return b
}

// Scheme returns the lower-cased scheme.
func (b *BaseURI) Scheme() string { return b.u.scheme }

// UserInfo returns the user-info component.
func (b *BaseURI) UserInfo() string { return b.u.userInfo }

// Host returns the lower-cased host.
func (b *BaseURI) Host() string { return b.u.host }

// Port returns the port, or zero if absent or the scheme default.
func (b *BaseURI) Port() int { return b.u.port }

// Path returns the percent-encoded path.
func (b *BaseURI) Path() string { return b.u.path }

// Authority returns the authority component.
func (b *BaseURI) Authority() string { return b.u.Authority() }

// WithPath returns a copy of b with the path replaced.
func (b *BaseURI) WithPath(path string) *BaseURI {
	return &BaseURI{u: *b.u.WithPath(path)}
}

// URI returns b as a general URI.
func (b *BaseURI) URI() *URI {
	u := b.u
	return &u
}

func (b *BaseURI) String() string {
	return b.u.String()
}
