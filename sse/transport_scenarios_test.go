// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import (
	"context"
	"testing"
	"time"
)

// TestScenario_BasicEcho drives a server and a client against each
// other over a real loopback listener: the server greets the client
// with a message, and the client replies.
func TestScenario_BasicEcho(t *testing.T) {
	serverInbound := make(chan InboundMessage, 4)
	srv, err := NewServer(ServerConfig{Endpoint: "127.0.0.1:0", ChannelCapacity: 4}, serverInbound)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srvHandle, err := srv.Start(ctx)
	if err != nil {
		t.Fatalf("Start server: %v", err)
	}
	defer srvHandle.Stop()

	deadline := time.Now().Add(time.Second)
	for srv.Addr() == "" && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	clientInbound := make(chan JSONRPCMessage, 4)
	client, err := NewClient(ClientConfig{
		Endpoint:   "http://" + srv.Addr() + "/",
		RetryCount: 3,
		RetryDelay: 50 * time.Millisecond,
	}, clientInbound)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	clientHandle, err := client.Start(ctx)
	if err != nil {
		t.Fatalf("Start client: %v", err)
	}
	defer clientHandle.Stop()

	// Wait for the client's GET to register before addressing it.
	var clientID ClientID
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ids := connectedClientIDs(srv)
		if len(ids) == 1 {
			clientID = ids[0]
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if clientID.IsZero() {
		t.Fatal("server never observed the client's stream")
	}

	greeting := JSONRPCMessage(`{"jsonrpc":"2.0","method":"hello"}`)
	if err := srv.Send(ctx, greeting, Metadata{ClientID: clientID}); err != nil {
		t.Fatalf("server Send: %v", err)
	}

	select {
	case got := <-clientInbound:
		if string(got) != string(greeting) {
			t.Errorf("client received %s, want %s", got, greeting)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client never received the greeting")
	}

	reply := JSONRPCMessage(`{"jsonrpc":"2.0","result":"hi"}`)
	if err := client.Send(ctx, reply, nil); err != nil {
		t.Fatalf("client Send: %v", err)
	}

	select {
	case got := <-serverInbound:
		if got.ClientID != clientID {
			t.Errorf("reply attributed to %s, want %s", got.ClientID, clientID)
		}
		if string(got.Message) != string(reply) {
			t.Errorf("server received %s, want %s", got.Message, reply)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the reply")
	}
}

func connectedClientIDs(s *ServerTransport) []ClientID {
	s.clients.mu.Lock()
	defer s.clients.mu.Unlock()
	ids := make([]ClientID, 0, len(s.clients.clients))
	for id := range s.clients.clients {
		ids = append(ids, id)
	}
	return ids
}
