// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import (
	"fmt"

	"github.com/google/uuid"
)

// ClientID identifies one accepted GET / stream. It is generated
// freshly by the server for each connection and rendered in its
// standard UUID text form wherever it crosses process boundaries
// (the endpoint advertisement URL, the POST /message/{id} path, the
// outbound-send metadata envelope).
type ClientID struct {
	id uuid.UUID
}

// NewClientID generates a fresh, random ClientID.
func NewClientID() ClientID {
	return ClientID{id: uuid.New()}
}

// ParseClientID parses the standard UUID text form of a ClientID.
func ParseClientID(s string) (ClientID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ClientID{}, fmt.Errorf("parse client id: %w", err)
	}
	return ClientID{id: id}, nil
}

// String returns the standard UUID text form.
func (c ClientID) String() string {
	return c.id.String()
}

// IsZero reports whether c is the zero ClientID.
func (c ClientID) IsZero() bool {
	return c.id == uuid.Nil
}

// MarshalJSON renders the ClientID as its UUID string.
func (c ClientID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.id.String() + `"`), nil
}

// UnmarshalJSON parses the ClientID from its UUID string.
func (c *ClientID) UnmarshalJSON(data []byte) error {
	var s string
	if err := jsonUnmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal client id: %w", err)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("unmarshal client id: %w", err)
	}
	c.id = id
	return nil
}
