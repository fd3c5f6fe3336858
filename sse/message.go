// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import (
	segjson "github.com/segmentio/encoding/json"
)

// JSONRPCMessage is an opaque JSON-RPC document. This package never
// inspects its fields (method, id, result, ...); it only serializes
// and deserializes it on behalf of the caller who owns the schema.
type JSONRPCMessage = segjson.RawMessage

// Metadata is the envelope a caller supplies alongside an outbound
// Send call in server mode, to steer delivery to one client. Client
// mode ignores it.
type Metadata struct {
	ClientID ClientID `json:"client_id"`
}

// remarshal marshals from to JSON and unmarshals it into to, which
// must be a pointer type. It is the mechanism by which the loosely
// typed metadata argument to Send (often a map[string]any built by a
// caller) becomes a concrete Metadata value, adapted from the
// teacher's mcp/util.go helper of the same name.
func remarshal(from, to any) error {
	data, err := jsonMarshal(from)
	if err != nil {
		return err
	}
	return jsonUnmarshal(data, to)
}

// decodeMetadata extracts a Metadata envelope from an arbitrary value,
// returning a KindInvalidMetadata *TransportError if it is absent or
// malformed.
func decodeMetadata(v any) (Metadata, error) {
	if v == nil {
		return Metadata{}, newError(KindInvalidMetadata, "metadata is required in server mode", nil)
	}
	var md Metadata
	if err := remarshal(v, &md); err != nil {
		return Metadata{}, newError(KindInvalidMetadata, "metadata does not match the client_id envelope", err)
	}
	if md.ClientID.IsZero() {
		return Metadata{}, newError(KindInvalidMetadata, "metadata.client_id is required", nil)
	}
	return md, nil
}
