// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"fmt"
	"io"
)

// BodyBytes converts a body argument to the bytes of a request body.
//
// A nil body has no bytes. A string is converted, and a []byte is
// copied so that later changes to it cannot reach the request. An
// io.Reader is drained, then closed if it is an io.Closer; if reading
// or closing fails, that error is returned with no bytes.
//
// Any other type is an error.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		if x == nil {
			return nil, nil
		}
		return append(make([]byte, 0, len(x)), x...), nil
	case io.Reader:
		return drain(x)
	}
	return nil, &BodyTypeError{Type: fmt.Sprintf("%T", body)}
}

func drain(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if c, ok := r.(io.Closer); ok {
		if err = c.Close(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// A BodyTypeError reports a body argument of an unsupported type.
type BodyTypeError struct {
	Type string
}

func (e *BodyTypeError) Error() string {
	return "apiconn/request: body type " + e.Type +
		" is not one of nil, string, []byte, or io.Reader"
}
