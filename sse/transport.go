// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import "context"

// InboundMessage is what a server-mode transport hands to its inbound
// sink: a JSON-RPC message paired with the client it arrived from.
// Client-mode transports hand the inbound sink bare JsonRpcMessages,
// since there is only ever one peer to attribute them to.
type InboundMessage struct {
	Message  JSONRPCMessage
	ClientID ClientID
}

// Transport is the uniform contract both operating modes present to
// the layer above. It intentionally has no method for observing
// disconnection: callers learn of it indirectly, by Send returning
// ChannelClosed/EndpointNotAdvertised or by the inbound sink going
// quiet.
//
// A Transport value is itself the facade the design calls for: rather
// than introduce a separate wrapper struct that only forwards calls,
// *ServerTransport and *ClientTransport each implement this interface
// directly, and a caller holds whichever one it constructed behind
// this interface type.
type Transport interface {
	// Start launches the background worker (the accept loop in server
	// mode, the connect-and-read loop in client mode) and returns a
	// Handle for observing or cancelling it.
	Start(ctx context.Context) (*Handle, error)

	// Send transmits message. In server mode, metadata must decode to
	// a Metadata envelope naming the target client. In client mode,
	// metadata is ignored.
	Send(ctx context.Context, message JSONRPCMessage, metadata any) error

	// Close releases resources. In server mode it fans a shutdown
	// event out to every connected client; it is best-effort and does
	// not stop the HTTP accept loop started by Start (callers cancel
	// the Handle for that). In client mode it is a logical no-op: the
	// reader task is torn down by cancelling the Handle.
	Close(ctx context.Context) error
}

// Handle represents a running background worker. Cancelling it (via
// Stop) aborts the worker the way dropping a task handle would in the
// source this package is ported from; Go has no implicit
// cancel-on-drop, so an explicit context.CancelFunc is the idiomatic
// substitute.
type Handle struct {
	cancel context.CancelFunc
	done   chan error
}

func newHandle(cancel context.CancelFunc) *Handle {
	return &Handle{cancel: cancel, done: make(chan error, 1)}
}

func (h *Handle) finish(err error) {
	h.done <- err
}

// Stop cancels the background worker. It does not wait for it to
// exit; call Wait for that.
func (h *Handle) Stop() {
	h.cancel()
}

// Wait blocks until the background worker has exited, and returns the
// error it exited with (nil on a graceful shutdown event).
func (h *Handle) Wait() error {
	return <-h.done
}
