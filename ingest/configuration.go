// SPDX-License-Identifier: GPL-3.0-or-later
package ingest

import (
	"fmt"

	"github.com/CrawX/go-imap-corpus/domain"
)

type ConfigFunc func(c *configuration) error

// DryRun ingests as usual but never writes the ledger.
func DryRun() ConfigFunc {
	return func(c *configuration) error {
		c.DryRun = true
		return nil
	}
}

// Incremental skips mails recorded in the ledger by an earlier run and records the new ones.
func Incremental() ConfigFunc {
	return func(c *configuration) error {
		c.Incremental = true
		return nil
	}
}

func BatchSize(size int) ConfigFunc {
	return func(c *configuration) error {
		if size < 1 {
			return fmt.Errorf("BatchSize must be positive, got %d", size)
		}
		c.BatchSize = size
		return nil
	}
}

func Progress(observer domain.ProgressObserver) ConfigFunc {
	return func(c *configuration) error {
		if observer == nil {
			return fmt.Errorf("Progress observer cannot be nil")
		}
		c.Progress = observer
		return nil
	}
}

type configuration struct {
	DryRun      bool
	Incremental bool
	BatchSize   int
	Progress    domain.ProgressObserver
}
