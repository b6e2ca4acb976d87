// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package uri

import (
	"regexp"
	"strconv"
	"strings"
)

// RFC 3986, Appendix B.
var referenceRE = regexp.MustCompile(`^(?:([^:/?#]+):)?(?://([^/?#]*))?([^?#]*)(?:\?([^#]*))?(?:#(.*))?$`)

var defaultPorts = map[string]int{
	"http":  80,
	"https": 443,
}

// A URI is an immutable URI reference.
//
// The zero value is the empty reference, whose string form is "".
// Use Parse or MustParse to create a URI from its string form, and the
// With methods to derive modified copies.
type URI struct {
	scheme   string
	userInfo string
	host     string
	port     int
	path     string
	query    string
	fragment string
}

// Parse parses a URI reference. The reference may be absolute or
// relative. An error of type *InvalidURIError is returned if s cannot
// be parsed, for example because it contains an invalid port.
func Parse(s string) (*URI, error) {
	u := &URI{}
	if s == "" {
		return u, nil
	}
	m := referenceRE.FindStringSubmatchIndex(s)
	if m == nil {
		return nil, &InvalidURIError{URI: s, Reason: "not a URI reference"}
	}
	part := func(i int) (string, bool) {
		if m[2*i] < 0 {
			return "", false
		}
		return s[m[2*i]:m[2*i+1]], true
	}
	if scheme, ok := part(1); ok {
		if !validScheme(scheme) {
			return nil, &InvalidURIError{URI: s, Reason: "invalid scheme " + strconv.Quote(scheme)}
		}
		u.scheme = strings.ToLower(scheme)
	}
	if authority, ok := part(2); ok {
		if err := u.setAuthority(authority); err != nil {
			err.URI = s
			return nil, err
		}
	}
	path, _ := part(3)
	u.path = encodePath(path)
	if query, ok := part(4); ok {
		u.query = encodeQuery(query)
	}
	if fragment, ok := part(5); ok {
		u.fragment = encodeQuery(fragment)
	}
	return u, nil
}

// MustParse is like Parse but panics if s cannot be parsed. It is
// intended for use with literal URIs.
func MustParse(s string) *URI {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func (u *URI) setAuthority(authority string) *InvalidURIError {
	if i := strings.LastIndexByte(authority, '@'); i >= 0 {
		u.userInfo = authority[:i]
		authority = authority[i+1:]
	}
	host := authority
	if i := strings.LastIndexByte(authority, ':'); i > strings.LastIndexByte(authority, ']') {
		host = authority[:i]
		if p := authority[i+1:]; p != "" {
			port, err := strconv.Atoi(p)
			if err != nil || port < 1 || port > 0xffff {
				return &InvalidURIError{Reason: "invalid port " + strconv.Quote(p)}
			}
			u.port = port
		}
	}
	u.host = strings.ToLower(host)
	u.port = filterPort(u.scheme, u.port)
	return nil
}

// filterPort drops port if it is the default port of scheme.
func filterPort(scheme string, port int) int {
	if port != 0 && defaultPorts[scheme] == port {
		return 0
	}
	return port
}

func validScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return s != ""
}

// Scheme returns the lower-cased scheme, without the trailing ':'.
func (u *URI) Scheme() string { return u.scheme }

// UserInfo returns the user-info component, in "user" or
// "user:password" form.
func (u *URI) UserInfo() string { return u.userInfo }

// Host returns the lower-cased host.
func (u *URI) Host() string { return u.host }

// Port returns the port, or zero if the URI has no port or the port is
// the default port of the scheme.
func (u *URI) Port() int { return u.port }

// Path returns the percent-encoded path.
func (u *URI) Path() string { return u.path }

// Query returns the percent-encoded query, without the leading '?'.
func (u *URI) Query() string { return u.query }

// Fragment returns the percent-encoded fragment, without the leading
// '#'.
func (u *URI) Fragment() string { return u.fragment }

// Authority returns the authority component in
// "[user-info@]host[:port]" form. If there is no host, the authority
// is empty.
func (u *URI) Authority() string {
	if u.host == "" {
		return ""
	}
	a := u.host
	if u.userInfo != "" {
		a = u.userInfo + "@" + a
	}
	if u.port != 0 {
		a += ":" + strconv.Itoa(u.port)
	}
	return a
}

// IsAbsolute reports whether the URI has a scheme.
func (u *URI) IsAbsolute() bool { return u.scheme != "" }

// WithScheme returns a copy of u with the scheme replaced. A trailing
// ":" or "://" is ignored.
func (u *URI) WithScheme(scheme string) *URI {
	v := *u
	v.scheme = strings.TrimRight(strings.ToLower(scheme), ":/")
	v.port = filterPort(v.scheme, v.port)
	return &v
}

// WithUserInfo returns a copy of u with the user-info replaced. The
// password is omitted if empty.
func (u *URI) WithUserInfo(user, password string) *URI {
	v := *u
	v.userInfo = user
	if password != "" {
		v.userInfo += ":" + password
	}
	return &v
}

// WithHost returns a copy of u with the host replaced.
func (u *URI) WithHost(host string) *URI {
	v := *u
	v.host = strings.ToLower(host)
	return &v
}

// WithPort returns a copy of u with the port replaced. A zero port
// removes the port. An error of type *InvalidURIError is returned if
// port is outside the range 0..65535.
func (u *URI) WithPort(port int) (*URI, error) {
	if port < 0 || port > 0xffff {
		return nil, &InvalidURIError{URI: u.String(), Reason: "invalid port " + strconv.Itoa(port)}
	}
	v := *u
	v.port = filterPort(v.scheme, port)
	return &v, nil
}

// WithPath returns a copy of u with the path replaced. The path is
// percent-encoded as necessary.
func (u *URI) WithPath(path string) *URI {
	v := *u
	v.path = encodePath(path)
	return &v
}

// WithQuery returns a copy of u with the query replaced. A leading '?'
// is ignored, and the query is percent-encoded as necessary.
func (u *URI) WithQuery(query string) *URI {
	v := *u
	v.query = encodeQuery(strings.TrimPrefix(query, "?"))
	return &v
}

// WithFragment returns a copy of u with the fragment replaced. A
// leading '#' is ignored, and the fragment is percent-encoded as
// necessary.
func (u *URI) WithFragment(fragment string) *URI {
	v := *u
	v.fragment = encodeQuery(strings.TrimPrefix(fragment, "#"))
	return &v
}

// String reassembles the URI into its string form.
func (u *URI) String() string {
	return compose(u.scheme, u.Authority(), u.path, u.query, u.fragment)
}

func compose(scheme, authority, path, query, fragment string) string {
	var b strings.Builder
	if scheme != "" {
		b.WriteString(scheme)
		b.WriteString("://")
	}
	b.WriteString(authority)
	if path != "" {
		if b.Len() > 0 && path[0] != '/' {
			b.WriteByte('/')
		}
		b.WriteString(path)
	}
	if query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}
	if fragment != "" {
		b.WriteByte('#')
		b.WriteString(fragment)
	}
	return b.String()
}
