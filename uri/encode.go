// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package uri

import "strings"

const upperhex = "0123456789ABCDEF"

// encodePath percent-encodes every byte of s which is not allowed
// unescaped in a path, and every '%' which does not start a valid
// escape sequence.
func encodePath(s string) string {
	return encode(s, false)
}

// encodeQuery is like encodePath but additionally leaves '?' alone, as
// is allowed in queries and fragments.
func encodeQuery(s string) string {
	return encode(s, true)
}

func encode(s string, query bool) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if mustEscape(s, i, query) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if mustEscape(s, i, query) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func mustEscape(s string, i int, query bool) bool {
	c := s[i]
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	}
	switch c {
	// unreserved
	case '-', '.', '_', '~':
		return false
	// sub-delims
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return false
	case ':', '@', '/':
		return false
	case '?':
		return !query
	case '%':
		return i+2 >= len(s) || !ishex(s[i+1]) || !ishex(s[i+2])
	}
	return true
}

func ishex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}
