// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package sse implements a bidirectional Server-Sent-Events transport
// for opaque JSON-RPC traffic between many clients and one server.
//
// The transport operates in one of two modes, chosen at construction:
//
//   - Server mode multiplexes many long-lived GET /-streamed clients
//     and accepts their replies over short-lived POST /message/{id}
//     requests.
//   - Client mode consumes a single event stream and posts replies to
//     the URL the server advertises in its first event.
//
// Both modes are driven through the same three-operation contract:
// Start, Send, and Close. This package never inspects the JSON-RPC
// payloads it carries; callers own that schema.
package sse
