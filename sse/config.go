// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import (
	"net/http"
	"time"
)

// ServerConfig configures a server-mode transport.
type ServerConfig struct {
	// Endpoint is the address to bind, e.g. "127.0.0.1:9100". It is
	// also echoed verbatim into the advertised endpoint URL; this
	// package never attempts to resolve a publicly visible host.
	Endpoint string

	// ChannelCapacity is the per-client outbound buffer size. Must be
	// at least 1.
	ChannelCapacity int

	// MaxBodyBytes bounds the size of an inbound POST /message body.
	// Zero selects DefaultMaxBodyBytes; a negative value disables the
	// limit entirely.
	MaxBodyBytes int64
}

func (c ServerConfig) validate() error {
	if c.Endpoint == "" {
		return newError(KindBuilderError, "ServerConfig.Endpoint must not be empty", nil)
	}
	if c.ChannelCapacity < 1 {
		return newError(KindBuilderError, "ServerConfig.ChannelCapacity must be >= 1", nil)
	}
	return nil
}

// ClientConfig configures a client-mode transport.
type ClientConfig struct {
	// Endpoint is the SSE URL to GET, e.g. "http://127.0.0.1:9100/".
	Endpoint string

	// RetryCount is the maximum number of connection attempts. Must be
	// at least 1.
	RetryCount int

	// RetryDelay is slept between unsuccessful connection attempts.
	RetryDelay time.Duration

	// HTTPClient is the client used for both the SSE GET and the
	// message POSTs. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
}

func (c ClientConfig) validate() error {
	if c.Endpoint == "" {
		return newError(KindBuilderError, "ClientConfig.Endpoint must not be empty", nil)
	}
	if c.RetryCount < 1 {
		return newError(KindBuilderError, "ClientConfig.RetryCount must be >= 1", nil)
	}
	return nil
}
