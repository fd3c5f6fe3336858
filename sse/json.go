// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import (
	segjson "github.com/segmentio/encoding/json"
)

// jsonMarshal and jsonUnmarshal centralize this package's JSON codec
// choice on segmentio/encoding/json, the teacher's own direct
// dependency for exactly this purpose, rather than encoding/json.
func jsonMarshal(v any) ([]byte, error) {
	return segjson.Marshal(v)
}

func jsonUnmarshal(data []byte, v any) error {
	return segjson.Unmarshal(data, v)
}
