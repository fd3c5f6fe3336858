// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import "strings"

const (
	dataPrefix  = "data: "
	eventPrefix = "event: "
	delimiter   = "\n\n"
)

// ParsedEvent is the result of decoding one SSE frame. Either field
// may be absent; a frame with neither set carries no information and
// is ignored by the caller's routing switch.
type ParsedEvent struct {
	EventType *string
	Data      *string
}

// frameScanner incrementally decodes a byte stream into ParsedEvents,
// using the blank-line delimiter. It tolerates chunk boundaries that
// split a frame (or even a line) anywhere, which is what lets an
// io.Reader be fed in arbitrarily sized reads.
//
// The codec does not validate UTF-8 boundaries within a chunk itself;
// callers append lossy UTF-8 conversions of each chunk, which is safe
// because the delimiter and line prefixes are all ASCII.
type frameScanner struct {
	buf string
}

// feed appends a chunk (already lossy-UTF-8-decoded by the caller) and
// returns every frame that is now complete.
func (s *frameScanner) feed(chunk string) []ParsedEvent {
	s.buf += chunk

	var events []ParsedEvent
	for {
		idx := strings.Index(s.buf, delimiter)
		if idx == -1 {
			break
		}
		frame := s.buf[:idx+len(delimiter)]
		s.buf = s.buf[idx+len(delimiter):]
		events = append(events, parseFrame(frame))
	}
	return events
}

// parseFrame decodes a single "\n\n"-terminated SSE frame. Unrecognized
// line prefixes are skipped; duplicate "event: "/"data: " lines retain
// only their last occurrence.
func parseFrame(frame string) ParsedEvent {
	var eventType, data *string

	lines := strings.Split(frame, "\n")
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, dataPrefix):
			v := strings.TrimPrefix(line, dataPrefix)
			data = &v
		case strings.HasPrefix(line, eventPrefix):
			v := strings.TrimPrefix(line, eventPrefix)
			eventType = &v
		}
	}

	return ParsedEvent{EventType: eventType, Data: data}
}

// lossyUTF8 is a lossy decode in the spirit of Rust's
// String::from_utf8_lossy: bytes that are not valid UTF-8 are replaced
// with the Unicode replacement character rather than rejected outright.
// Unlike the Rust function, each run of consecutive invalid bytes
// becomes a single replacement character.
func lossyUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// parseJSONRPC decodes the frame's data as an opaque JsonRpcMessage.
// It returns (nil, nil) if the frame carried no data.
func (p ParsedEvent) parseJSONRPC() (JSONRPCMessage, error) {
	if p.Data == nil {
		return nil, nil
	}
	msg := JSONRPCMessage(*p.Data)
	if !jsonValid(msg) {
		return nil, newError(KindSerialization, "invalid JSON-RPC payload", nil)
	}
	return msg, nil
}

// jsonValid reports whether data is syntactically valid JSON, without
// inspecting its shape (the payload remains opaque).
func jsonValid(data []byte) bool {
	var v any
	return jsonUnmarshal(data, &v) == nil
}
