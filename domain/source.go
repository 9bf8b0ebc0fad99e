// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "context"

// RawMessage is one undecoded message handed out by a MessageSource. Err carries a per-message
// failure; the source itself stays usable.
type RawMessage struct {
	Source string
	Raw    []byte
	Err    error
}

// MessageSource yields raw messages one at a time and returns io.EOF when exhausted.
type MessageSource interface {
	Next(ctx context.Context) (*RawMessage, error)
	Close() error
}
