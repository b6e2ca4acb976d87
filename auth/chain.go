// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package auth

import "github.com/gogama/apiconn/request"

// A Chain is an ordered list of authenticators consulted when a
// response arrives.
//
// Register authenticators while assembling the manager. Once traffic
// starts the chain is only read, and concurrent calls to React and Len
// are safe.
//
// The zero value is an empty chain ready to use.
type Chain struct {
	authenticators []Authenticator
}

// NewChain returns a chain holding the given authenticators in order.
func NewChain(as ...Authenticator) *Chain {
	c := &Chain{}
	for _, a := range as {
		c.Register(a)
	}
	return c
}

// Register appends an authenticator to the chain. It panics if a is
// nil.
func (c *Chain) Register(a Authenticator) {
	if a == nil {
		panic("apiconn/auth: nil authenticator")
	}
	c.authenticators = append(c.authenticators, a)
}

// React returns the first authenticator, in registration order, which
// supports resp, or nil if none does. A nil chain supports nothing.
func (c *Chain) React(resp *request.Response) Authenticator {
	if c == nil {
		return nil
	}
	for _, a := range c.authenticators {
		if a.Supports(resp) {
			return a
		}
	}
	return nil
}

// Len returns the number of authenticators in the chain.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.authenticators)
}
