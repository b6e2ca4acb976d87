// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package auth

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// AnonymousID is the identifier under which Anonymous is registered in
// every Registry returned by NewRegistry.
const AnonymousID = "anonymous"

// ErrUnknownAuthenticator is wrapped by the error Resolve returns for an
// identifier with no registered factory.
var ErrUnknownAuthenticator = errors.New("apiconn/auth: unknown authenticator")

// A Factory creates an Authenticator. It is called once per Resolve.
type Factory func() (Authenticator, error)

// A Registry maps authenticator identifiers to factories, so that
// configuration can name authenticators by identifier.
//
// A Registry is safe for concurrent use by multiple goroutines.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with Anonymous pre-registered under
// AnonymousID.
func NewRegistry() *Registry {
	reg := &Registry{factories: make(map[string]Factory)}
	reg.factories[AnonymousID] = func() (Authenticator, error) {
		return Anonymous, nil
	}
	return reg
}

// Register associates id with f, replacing any factory already
// registered under id. It panics if id is empty or f is nil.
func (reg *Registry) Register(id string, f Factory) {
	if id == "" {
		panic("apiconn/auth: empty authenticator id")
	}
	if f == nil {
		panic("apiconn/auth: nil factory")
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.factories == nil {
		reg.factories = make(map[string]Factory)
	}
	reg.factories[id] = f
}

// Resolve instantiates the authenticator registered under id.
func (reg *Registry) Resolve(id string) (Authenticator, error) {
	reg.mu.RLock()
	f, ok := reg.factories[id]
	reg.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAuthenticator, id)
	}
	a, err := f()
	if err != nil {
		return nil, fmt.Errorf("apiconn/auth: creating %q: %w", id, err)
	}
	if a == nil {
		return nil, fmt.Errorf("apiconn/auth: factory for %q returned nil", id)
	}
	return a, nil
}

// Chain resolves each identifier in order and returns a chain holding
// the results.
func (reg *Registry) Chain(ids ...string) (*Chain, error) {
	c := &Chain{}
	for _, id := range ids {
		a, err := reg.Resolve(id)
		if err != nil {
			return nil, err
		}
		c.Register(a)
	}
	return c, nil
}

// IDs returns the registered identifiers in sorted order.
func (reg *Registry) IDs() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	ids := make([]string, 0, len(reg.factories))
	for id := range reg.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
