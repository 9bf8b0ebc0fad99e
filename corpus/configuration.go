// SPDX-License-Identifier: GPL-3.0-or-later
package corpus

import (
	"github.com/CrawX/go-imap-corpus/domain"
	"github.com/CrawX/go-imap-corpus/mail"
)

type BuilderFunc func(b *Builder)

func WithLogSink(sink domain.LogSink) BuilderFunc {
	return func(b *Builder) {
		if sink != nil {
			b.sink = sink
		}
	}
}

func WithProgress(observer domain.ProgressObserver) BuilderFunc {
	return func(b *Builder) {
		if observer != nil {
			b.progress = observer
		}
	}
}

func WithDecomposer(d *mail.Decomposer) BuilderFunc {
	return func(b *Builder) {
		if d != nil {
			b.decomposer = d
		}
	}
}

// WithConcurrency decomposes up to n files of a folder at once. Entries and errors are still
// committed in listing order.
func WithConcurrency(n int) BuilderFunc {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}
