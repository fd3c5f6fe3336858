// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// sseStub serves a hand-written SSE stream, for exercising the client
// reader loop without depending on ServerTransport.
func sseStub(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for _, f := range frames {
			fmt.Fprint(w, f)
			flusher.Flush()
		}
	}))
}

func TestClient_RoutesMessageEvents(t *testing.T) {
	srv := sseStub(t, []string{
		"event: endpoint\ndata: http://example.invalid/message/abc\n\n",
		"event: message\ndata: {\"id\":1}\n\n",
	})
	defer srv.Close()

	inbound := make(chan JSONRPCMessage, 4)
	client, err := NewClient(ClientConfig{Endpoint: srv.URL, RetryCount: 1, RetryDelay: time.Millisecond}, inbound)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handle, err := client.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case msg := <-inbound:
		if string(msg) != `{"id":1}` {
			t.Errorf("got %s, want {\"id\":1}", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound message")
	}

	cancel()
	handle.Wait()
}

func TestClient_EndpointGatesUntilAdvertised(t *testing.T) {
	srv := sseStub(t, []string{}) // never advertises an endpoint
	defer srv.Close()

	inbound := make(chan JSONRPCMessage, 1)
	client, err := NewClient(ClientConfig{Endpoint: srv.URL, RetryCount: 1, RetryDelay: time.Millisecond}, inbound)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	err = client.Send(context.Background(), JSONRPCMessage(`{}`), nil)
	var terr *TransportError
	if !asTransportError(err, &terr) || terr.Kind != KindEndpointNotAdvertised {
		t.Errorf("got %v, want KindEndpointNotAdvertised", err)
	}
}

func TestClient_SendPostsToAdvertisedEndpoint(t *testing.T) {
	var mu sync.Mutex
	var gotBody string

	msgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		mu.Lock()
		gotBody = string(buf[:n])
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer msgSrv.Close()

	sseSrv := sseStub(t, []string{
		fmt.Sprintf("event: endpoint\ndata: %s\n\n", msgSrv.URL),
	})
	defer sseSrv.Close()

	inbound := make(chan JSONRPCMessage, 1)
	client, err := NewClient(ClientConfig{Endpoint: sseSrv.URL, RetryCount: 1, RetryDelay: time.Millisecond}, inbound)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := client.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for client.currentEndpoint() == "" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := client.Send(context.Background(), JSONRPCMessage(`{"reply":true}`), nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotBody != `{"reply":true}` {
		t.Errorf("server received %q", gotBody)
	}
}

func TestClient_ShutdownEventEndsCleanly(t *testing.T) {
	srv := sseStub(t, []string{
		"event: endpoint\ndata: http://example.invalid/message/abc\n\n",
		"event: shutdown\ndata: Server is shutting down\n\n",
	})
	defer srv.Close()

	inbound := make(chan JSONRPCMessage, 1)
	client, err := NewClient(ClientConfig{Endpoint: srv.URL, RetryCount: 1, RetryDelay: time.Millisecond}, inbound)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	handle, err := client.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case err := <-waitAsync(handle):
		if err != nil {
			t.Errorf("Wait() = %v, want nil after clean shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handle to finish")
	}
}

func TestClient_RetryBoundIsRespected(t *testing.T) {
	// Bind a listener and close it immediately, so the address is
	// refused, to exercise the connection-failure retry path without
	// relying on network-unreachable addresses in a sandboxed runner.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	inbound := make(chan JSONRPCMessage, 1)
	client, err := NewClient(ClientConfig{
		Endpoint:   "http://" + addr,
		RetryCount: 3,
		RetryDelay: 10 * time.Millisecond,
	}, inbound)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	start := time.Now()
	handle, err := client.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case err := <-waitAsync(handle):
		if err == nil {
			t.Error("expected an error after exhausting retries")
		}
		if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
			t.Errorf("retries finished suspiciously fast: %v", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for retries to exhaust")
	}
}

func waitAsync(h *Handle) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- h.Wait() }()
	return ch
}
