// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import "fmt"

// eventTypeMessage, eventTypeEndpoint and eventTypeShutdown are the
// only SSE event type strings this transport ever writes or
// recognizes on read. They are fixed, not configurable, matching the
// Rust precedent this module is ported from.
const (
	eventTypeMessage  = "message"
	eventTypeEndpoint = "endpoint"
	eventTypeShutdown = "shutdown"

	shutdownReason = "Server is shutting down"
)

// systemKind distinguishes the two control messages an Event can
// carry when it is not a Transport event.
type systemKind int

const (
	systemEndpoint systemKind = iota
	systemShutdown
)

// Event is the tagged union carried over the wire: either a
// transport-carried JSON-RPC message, or a control message (endpoint
// advertisement or shutdown).
type Event struct {
	// transport is true for a Transport event; false for a System one.
	transport bool

	// Transport fields.
	message   JSONRPCMessage
	eventType string

	// System fields.
	kind     systemKind
	endpoint string // valid when kind == systemEndpoint
	reason   string // valid when kind == systemShutdown
}

// newTransportEvent builds an Event carrying a JSON-RPC message with
// the default "message" event type.
func newTransportEvent(message JSONRPCMessage) Event {
	return Event{transport: true, message: message, eventType: eventTypeMessage}
}

// newEndpointEvent builds the control event advertising the URL a
// client should POST replies to.
func newEndpointEvent(url string) Event {
	return Event{kind: systemEndpoint, endpoint: url}
}

// newShutdownEvent builds the control event announcing server
// termination.
func newShutdownEvent(reason string) Event {
	return Event{kind: systemShutdown, reason: reason}
}

// encode renders the event as its SSE wire frame: an "event: " line,
// a "data: " line, and a terminating blank line.
func (e Event) encode() ([]byte, error) {
	if e.transport {
		data, err := jsonMarshal(e.message)
		if err != nil {
			return nil, newError(KindSerialization, "failed to serialize JsonRpcMessage", err)
		}
		return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", e.eventType, data)), nil
	}

	switch e.kind {
	case systemEndpoint:
		return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventTypeEndpoint, e.endpoint)), nil
	case systemShutdown:
		return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventTypeShutdown, e.reason)), nil
	default:
		return nil, newError(KindBuilderError, "unknown system event kind", nil)
	}
}
