// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/cenkalti/backoff/v5"

	"github.com/fenwaylabs/ssetransport/internal/sseflags"
)

// ClientOption customizes a ClientTransport beyond ClientConfig.
type ClientOption func(*ClientTransport)

// WithClientLogger overrides the package default logger.
func WithClientLogger(logger FieldLogger) ClientOption {
	return func(c *ClientTransport) { c.logger = logger }
}

// ClientTransport consumes a single server-multiplexed SSE stream and
// posts replies to whatever URL the server's endpoint event names. It
// implements Transport.
type ClientTransport struct {
	config     ClientConfig
	inbound    chan<- JSONRPCMessage
	logger     FieldLogger
	httpClient *http.Client

	mu            sync.RWMutex
	endpoint      string
	endpointReady chan struct{}
}

// NewClient builds a client-mode transport. Inbound JSON-RPC messages
// read off the server's stream are delivered to inbound; the caller
// owns that channel and must drain it for as long as the transport
// runs.
func NewClient(config ClientConfig, inbound chan<- JSONRPCMessage, opts ...ClientOption) (*ClientTransport, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &ClientTransport{
		config:        config,
		inbound:       inbound,
		logger:        defaultLogger(),
		httpClient:    httpClient,
		endpointReady: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start connects to ClientConfig.Endpoint and reads its SSE stream in
// a background goroutine, retrying up to ClientConfig.RetryCount times
// with ClientConfig.RetryDelay between attempts whenever the
// connection itself fails or drops unexpectedly. A clean shutdown
// event ends the goroutine without being treated as a failure.
func (c *ClientTransport) Start(ctx context.Context) (*Handle, error) {
	runCtx, cancel := context.WithCancel(ctx)
	handle := newHandle(cancel)

	bo := backoff.NewConstantBackOff(c.config.RetryDelay)

	go func() {
		_, err := backoff.Retry(runCtx, func() (struct{}, error) {
			connErr := c.runOnce(runCtx)
			if connErr == nil {
				return struct{}{}, nil
			}
			return struct{}{}, connErr
		}, backoff.WithBackOff(bo), backoff.WithMaxTries(uint(c.config.RetryCount)))
		handle.finish(err)
	}()

	return handle, nil
}

// runOnce performs one connect-and-read cycle. It returns nil on a
// clean server-initiated shutdown, and a non-nil error (subject to
// retry by Start) on any connection or stream failure.
func (c *ClientTransport) runOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint, nil)
	if err != nil {
		return newError(KindConnectionError, "failed to build request", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newError(KindConnectionError, "failed to connect to "+c.config.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpStatusError(resp.StatusCode)
	}

	c.logger.WithField("endpoint", c.config.Endpoint).Debug("connected to sse stream")

	scanner := &frameScanner{}
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if sseflags.RawFrames() {
				c.logger.WithField("chunk", string(buf[:n])).Debug("raw sse chunk read")
			}
			for _, ev := range scanner.feed(lossyUTF8(buf[:n])) {
				done, routeErr := c.route(ctx, ev)
				if routeErr != nil {
					return routeErr
				}
				if done {
					return nil
				}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return newError(KindConnectionError, "sse stream closed by peer", nil)
			}
			return newError(KindIO, "failed to read sse stream", readErr)
		}
	}
}

// route dispatches one decoded frame. It reports done=true when a
// shutdown control event ends the stream cleanly.
func (c *ClientTransport) route(ctx context.Context, ev ParsedEvent) (done bool, err error) {
	eventType := ""
	if ev.EventType != nil {
		eventType = *ev.EventType
	}

	switch eventType {
	case eventTypeEndpoint:
		if ev.Data == nil {
			c.logger.Warn("dropping endpoint event with no data")
			return false, nil
		}
		c.setEndpoint(*ev.Data)
		return false, nil

	case eventTypeShutdown:
		c.logger.Info("server requested shutdown")
		return true, nil

	case eventTypeMessage, "":
		msg, parseErr := ev.parseJSONRPC()
		if parseErr != nil {
			c.logger.WithError(parseErr).Warn("dropping malformed message event")
			return false, nil
		}
		if msg == nil {
			return false, nil
		}
		select {
		case c.inbound <- msg:
		case <-ctx.Done():
			return false, ctx.Err()
		}
		return false, nil

	default:
		c.logger.WithField("event_type", eventType).Debug("ignoring unrecognized event type")
		return false, nil
	}
}

func (c *ClientTransport) setEndpoint(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = url
	select {
	case <-c.endpointReady:
	default:
		close(c.endpointReady)
	}
}

func (c *ClientTransport) currentEndpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint
}

// Send POSTs message to the URL most recently advertised by the
// server. metadata is ignored: client mode has exactly one peer.
func (c *ClientTransport) Send(ctx context.Context, message JSONRPCMessage, metadata any) error {
	endpoint := c.currentEndpoint()
	if endpoint == "" {
		return newError(KindEndpointNotAdvertised, "no endpoint event received yet", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(message))
	if err != nil {
		return newError(KindConnectionError, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newError(KindConnectionError, "failed to post to "+endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpStatusError(resp.StatusCode)
	}
	return nil
}

// Close is a logical no-op in client mode; the reader goroutine is
// torn down by cancelling the Handle returned from Start.
func (c *ClientTransport) Close(ctx context.Context) error {
	return nil
}
