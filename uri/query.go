// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package uri

import "strings"

var queryReplacer = strings.NewReplacer("=", "%3D", "&", "%26")

// WithQueryValue returns a copy of u whose query has every pair with the
// given key removed and key=value appended.
//
// The characters '=' and '&' in key and value are encoded as %3D and %26.
func WithQueryValue(u *URI, key, value string) *URI {
	key = queryReplacer.Replace(key)
	pairs := withoutKey(u.query, key)
	pairs = append(pairs, key+"="+queryReplacer.Replace(value))
	return u.WithQuery(strings.Join(pairs, "&"))
}

// WithoutQueryValue returns a copy of u whose query has every pair with
// the given key removed.
func WithoutQueryValue(u *URI, key string) *URI {
	if u.query == "" {
		return u
	}
	return u.WithQuery(strings.Join(withoutKey(u.query, key), "&"))
}

func withoutKey(query, key string) []string {
	if query == "" {
		return nil
	}
	var pairs []string
	for _, p := range strings.Split(query, "&") {
		if k, _, _ := strings.Cut(p, "="); k != key {
			pairs = append(pairs, p)
		}
	}
	return pairs
}
