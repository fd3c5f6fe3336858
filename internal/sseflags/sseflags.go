// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package sseflags provides a mechanism to configure debug parameters
// via the SSETRANSPORTDEBUG environment variable.
//
// The value of SSETRANSPORTDEBUG is a comma-separated list of
// key=value pairs. For example:
//
//	SSETRANSPORTDEBUG=rawframes=1
package sseflags

import (
	"fmt"
	"os"
	"strings"
)

const debugEnvKey = "SSETRANSPORTDEBUG"

var debugParams map[string]string

func init() {
	var err error
	debugParams, err = parseDebug(os.Getenv(debugEnvKey))
	if err != nil {
		panic(err)
	}
}

// Value returns the value of the debug parameter with the given key.
// It returns an empty string if the key is not set.
func Value(key string) string {
	return debugParams[key]
}

// RawFrames reports whether raw SSE frame tracing was requested via
// SSETRANSPORTDEBUG=rawframes=1.
func RawFrames() bool {
	return Value("rawframes") == "1"
}

func parseDebug(envValue string) (map[string]string, error) {
	if envValue == "" {
		return nil, nil
	}

	params := make(map[string]string)
	for part := range strings.SplitSeq(envValue, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("SSETRANSPORTDEBUG: invalid format: %q", part)
		}
		params[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return params, nil
}
