// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package apiconn

// A HandlerGroup is a group of event handler chains which can be
// installed in a Manager.
//
// Build the group while assembling the manager. The manager only reads
// it, so a group may be shared by concurrent sends.
type HandlerGroup struct {
	handlers [][]Handler
}

// PushBack adds an event handler to the back of the event handler chain
// for a specific event type.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("apiconn: nil handler")
	}
	if evt < 0 || int(evt) >= numEvents {
		panic("apiconn: unknown event")
	}

	if g.handlers == nil {
		g.handlers = make([][]Handler, numEvents)
	}

	g.handlers[evt] = append(g.handlers[evt], h)
}

// Len returns the number of handlers in the chain for evt.
func (g *HandlerGroup) Len(evt Event) int {
	if g == nil || int(evt) >= len(g.handlers) {
		return 0
	}
	return len(g.handlers[evt])
}

// run runs the chain for evt over a private copy of x and returns the
// copy, so that the caller decides which of the handlers' changes it
// adopts.
func (g *HandlerGroup) run(evt Event, x *Exchange) *Exchange {
	y := *x
	if g != nil {
		if i := int(evt); i < len(g.handlers) {
			for _, h := range g.handlers[i] {
				h.Handle(evt, &y)
			}
		}
	}
	return &y
}

// A Handler handles the occurrence of an event during a logical send.
type Handler interface {
	Handle(Event, *Exchange)
}

// The HandlerFunc type is an adapter to allow the use of ordinary
// functions as event handlers.
type HandlerFunc func(Event, *Exchange)

// Handle calls f(evt, x).
func (f HandlerFunc) Handle(evt Event, x *Exchange) {
	f(evt, x)
}

// An Installer installs one or more handlers into a HandlerGroup.
type Installer interface {
	Install(g *HandlerGroup)
}
