// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package uri

import "strings"

// Resolve resolves the reference ref against base, following RFC 3986
// section 5.3. Since a BaseURI never has a query or fragment, only the
// scheme, authority and path of base take part in the merge.
//
// If ref has a scheme it is returned with only its dot segments
// removed, and base is ignored.
func Resolve(base *BaseURI, ref *URI) *URI {
	if ref.scheme != "" {
		return ref.WithPath(RemoveDotSegments(ref.path))
	}

	t := base.u
	switch {
	case ref.host != "":
		t.userInfo = ref.userInfo
		t.host = ref.host
		t.port = filterPort(t.scheme, ref.port)
		t.path = RemoveDotSegments(ref.path)
		t.query = ref.query
		t.fragment = ref.fragment
	case ref.path != "":
		if strings.HasPrefix(ref.path, "/") {
			t.path = RemoveDotSegments(ref.path)
		} else {
			t.path = RemoveDotSegments(merge(&base.u, ref.path))
		}
		t.query = ref.query
		t.fragment = ref.fragment
	case ref.query != "":
		t.query = ref.query
	case ref.fragment != "":
		t.fragment = ref.fragment
	}
	return &t
}

// merge implements RFC 3986 section 5.2.3.
func merge(base *URI, path string) string {
	if base.host != "" && base.path == "" {
		return "/" + path
	}
	return base.path[:strings.LastIndexByte(base.path, '/')+1] + path
}

// RemoveDotSegments removes the "." and ".." segments from path,
// following RFC 3986 section 5.2.4.
//
// A leading slash is kept if path is absolute, and a trailing slash is
// added if the last segment of path was "." or "..". The paths "", "/"
// and "*" are returned unchanged.
func RemoveDotSegments(path string) string {
	switch path {
	case "", "/", "*":
		return path
	}

	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		switch s {
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case ".":
		default:
			out = append(out, s)
		}
	}

	p := strings.Join(out, "/")
	if path[0] == '/' && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if last := segments[len(segments)-1]; p != "/" && (last == "." || last == "..") {
		p += "/"
	}
	return p
}
