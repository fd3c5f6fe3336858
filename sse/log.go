// Copyright 2026 The ssetransport Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import "github.com/sirupsen/logrus"

// FieldLogger is the logging interface this package calls through,
// satisfied by both *logrus.Logger and *logrus.Entry. Embedders supply
// their own instance; this package never configures where the logs
// end up (the log sink stays the embedder's concern).
type FieldLogger = logrus.FieldLogger

func defaultLogger() FieldLogger {
	return logrus.StandardLogger()
}
