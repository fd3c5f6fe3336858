// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/fenwaylabs/ssetransport/internal/sseflags"
)

// DefaultMaxBodyBytes bounds an inbound POST /message body when
// ServerConfig.MaxBodyBytes is left at zero.
const DefaultMaxBodyBytes = 1_000_000

// ServerOption customizes a ServerTransport beyond ServerConfig.
type ServerOption func(*ServerTransport)

// WithServerLogger overrides the package default logger.
func WithServerLogger(logger FieldLogger) ServerOption {
	return func(s *ServerTransport) { s.logger = logger }
}

// ServerTransport multiplexes many GET / SSE streams, one per
// connected client, and accepts replies on POST /message/{id}. It
// implements Transport.
type ServerTransport struct {
	config  ServerConfig
	inbound chan<- InboundMessage
	logger  FieldLogger
	maxBody int64
	clients *clientRegistry

	addrMu sync.RWMutex
	addr   string
}

// Addr returns the bound listener address once Start has completed,
// e.g. "127.0.0.1:53214" when ServerConfig.Endpoint asked for an
// OS-assigned port. It returns "" before Start has run.
func (s *ServerTransport) Addr() string {
	s.addrMu.RLock()
	defer s.addrMu.RUnlock()
	return s.addr
}

// NewServer builds a server-mode transport. Inbound JSON-RPC messages
// received over POST /message/{id} are delivered to inbound, tagged
// with the client id they arrived from; the caller owns that channel
// and is responsible for draining it for as long as the transport
// runs.
func NewServer(config ServerConfig, inbound chan<- InboundMessage, opts ...ServerOption) (*ServerTransport, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	maxBody := config.MaxBodyBytes
	if maxBody == 0 {
		maxBody = DefaultMaxBodyBytes
	}
	s := &ServerTransport{
		config:  config,
		inbound: inbound,
		logger:  defaultLogger(),
		maxBody: maxBody,
		clients: newClientRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start binds ServerConfig.Endpoint and serves it in a background
// goroutine until the returned Handle is stopped or the listener dies.
func (s *ServerTransport) Start(ctx context.Context) (*Handle, error) {
	listener, err := net.Listen("tcp", s.config.Endpoint)
	if err != nil {
		return nil, newError(KindConnectionError, "failed to bind "+s.config.Endpoint, err)
	}

	s.addrMu.Lock()
	s.addr = listener.Addr().String()
	s.addrMu.Unlock()

	if !isLoopback(s.addr) {
		s.logger.WithField("addr", s.addr).Warn("binding to a non-loopback address; the advertised endpoint will be reachable from other hosts")
	}

	baseURL := "http://" + s.addr

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleGet(baseURL))
	mux.HandleFunc("POST /message/{id}", s.handlePost)

	httpServer := &http.Server{Handler: mux}

	runCtx, cancel := context.WithCancel(ctx)
	handle := newHandle(cancel)

	go func() {
		<-runCtx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	go func() {
		err := httpServer.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		handle.finish(err)
	}()

	return handle, nil
}

// handleGet accepts one client's SSE stream: it registers the client,
// writes the endpoint advertisement first, and then relays whatever
// the registry routes to it until the request context ends.
func (s *ServerTransport) handleGet(baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		id := NewClientID()
		ch := make(chan Event, s.config.ChannelCapacity)
		done := make(chan struct{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		s.clients.insert(id, ch, done)
		defer func() {
			s.clients.remove(id)
			close(done)
		}()

		endpoint := fmt.Sprintf("%s/message/%s", baseURL, id.String())
		if err := s.writeEvent(w, flusher, newEndpointEvent(endpoint)); err != nil {
			s.logger.WithError(err).WithField("client_id", id.String()).Warn("failed to write endpoint event")
			return
		}

		s.logger.WithField("client_id", id.String()).Debug("client connected")

		for {
			select {
			case <-r.Context().Done():
				return
			case ev := <-ch:
				if err := s.writeEvent(w, flusher, ev); err != nil {
					s.logger.WithError(err).WithField("client_id", id.String()).Warn("failed to write event")
					return
				}
			}
		}
	}
}

func (s *ServerTransport) writeEvent(w io.Writer, flusher http.Flusher, ev Event) error {
	frame, err := ev.encode()
	if err != nil {
		return err
	}
	if sseflags.RawFrames() {
		s.logger.WithField("frame", string(frame)).Debug("raw SSE frame written")
	}
	if _, err := w.Write(frame); err != nil {
		return newError(KindIO, "failed to write SSE frame", err)
	}
	flusher.Flush()
	return nil
}

// handlePost accepts one reply from a client, addressed by the id in
// its path, and forwards it to the inbound channel. The JSON-RPC
// payload is never inspected beyond confirming it is syntactically
// valid JSON; this package never parses or validates JSON-RPC fields.
func (s *ServerTransport) handlePost(w http.ResponseWriter, r *http.Request) {
	id, err := ParseClientID(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}

	body := r.Body
	if s.maxBody >= 0 {
		body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	if sseflags.RawFrames() {
		s.logger.WithField("client_id", id.String()).WithField("body", string(data)).Debug("raw POST body")
	}

	// A malformed body is the sender's problem, not the transport's:
	// the HTTP round trip still succeeded, so this responds 200 rather
	// than 400. There is nothing a disconnected client could do with a
	// 400 here anyway. This package never inspects the payload beyond
	// confirming it is syntactically valid JSON; it does not parse or
	// validate JSON-RPC fields.
	msg := JSONRPCMessage(data)
	if !jsonValid(msg) {
		s.logger.WithField("client_id", id.String()).Warn("dropping POST body that is not valid JSON")
		w.WriteHeader(http.StatusOK)
		return
	}

	select {
	case s.inbound <- InboundMessage{Message: msg, ClientID: id}:
	case <-r.Context().Done():
	}

	w.WriteHeader(http.StatusOK)
}

// Send routes message to the client named in metadata's Metadata
// envelope.
func (s *ServerTransport) Send(ctx context.Context, message JSONRPCMessage, metadata any) error {
	md, err := decodeMetadata(metadata)
	if err != nil {
		return err
	}

	switch s.clients.sendTo(md.ClientID, newTransportEvent(message)) {
	case sendOK:
		return nil
	case sendNotFound:
		return newError(KindUnknownClient, "no such client: "+md.ClientID.String(), nil)
	case sendPeerGone:
		return newError(KindChannelClosed, "client disconnected: "+md.ClientID.String(), nil)
	default:
		return newError(KindBuilderError, "unreachable send result", nil)
	}
}

// Close fans a shutdown event out to every still-connected client. It
// is best-effort: a client whose buffer is full and not being drained
// will not receive it before ctx expires.
func (s *ServerTransport) Close(ctx context.Context) error {
	ev := newShutdownEvent(shutdownReason)
	for id, entry := range s.clients.drain() {
		select {
		case entry.ch <- ev:
		case <-entry.done:
		case <-ctx.Done():
			s.logger.WithField("client_id", id.String()).Warn("shutdown event not delivered before close deadline")
		}
	}
	return nil
}

// isLoopback reports whether addr (a "host:port" or bare host) names a
// loopback address, so Start can flag a bind that puts the hardcoded
// http:// endpoint advertisement on a non-local interface.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = strings.Trim(addr, "[]")
	}
	if host == "localhost" {
		return true
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return ip.IsLoopback()
}
