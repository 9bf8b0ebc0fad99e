// SPDX-License-Identifier: GPL-3.0-or-later
package progress

import (
	"sync"

	"github.com/CrawX/go-imap-corpus/domain"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
)

const DefaultTitle = "Parsing emails"

// Bar renders ingestion progress as a pterm progress bar. A new bar is started whenever the
// observed counter starts over, which happens once per folder or source.
type Bar struct {
	mu    sync.Mutex
	title string
	pb    *pterm.ProgressbarPrinter
}

func NewBar(title string) *Bar {
	return &Bar{title: title}
}

func (b *Bar) Observe(current, total int) {
	// unknown totals are left to the logger
	if total <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pb != nil && (current <= b.pb.Current || total != b.pb.Total) {
		b.stop()
	}

	if b.pb == nil {
		pb, err := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle(b.title).
			Start()
		if err != nil {
			return
		}
		b.pb = pb
	}

	b.pb.Add(current - b.pb.Current)
	if current >= total {
		b.stop()
	}
}

// Stop finalizes a bar that did not reach its total.
func (b *Bar) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stop()
}

func (b *Bar) stop() {
	if b.pb == nil {
		return
	}
	_, _ = b.pb.Stop()
	b.pb = nil
}

func (b *Bar) active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.pb != nil
}

// Logger logs every n-th step and the last one.
func Logger(l logrus.FieldLogger, every int) domain.ProgressObserver {
	if every < 1 {
		every = 1
	}
	return func(current, total int) {
		if current%every != 0 && current != total {
			return
		}
		l.WithFields(logrus.Fields{"current": current, "total": total}).Info(DefaultTitle)
	}
}

func Noop() domain.ProgressObserver {
	return func(int, int) {}
}

// ForLevel picks the observer matching the configured log level: a bar when logging at info, log
// lines when debugging and nothing otherwise.
func ForLevel(loglevel string, l logrus.FieldLogger) (domain.ProgressObserver, func()) {
	switch loglevel {
	case "info":
		bar := NewBar(DefaultTitle)
		return bar.Observe, bar.Stop
	case "debug", "trace":
		return Logger(l, 100), func() {}
	default:
		return Noop(), func() {}
	}
}
