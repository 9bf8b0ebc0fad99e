// SPDX-License-Identifier: GPL-3.0-or-later
package log

import (
	"fmt"

	"github.com/CrawX/go-imap-corpus/domain"

	"github.com/sirupsen/logrus"
)

// Sink adapts a logrus logger to the status/error callback used by the corpus builder.
// The returned text is what callers propagate as the error message.
func Sink(l logrus.FieldLogger) domain.LogSink {
	return func(message string, isError bool) string {
		if isError {
			l.Error(message)
			return fmt.Sprintf("[x] %s", message)
		}

		l.Info(message)
		return fmt.Sprintf("[*] %s", message)
	}
}
