// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import (
	"fmt"
	"sort"
)

// CleanAddress is the best-effort split of a From header. All fields are empty when no address
// could be found.
type CleanAddress struct {
	Address string
	Domain  string
	TLD     string
}

// TokenCounts is a multiset of tokens.
type TokenCounts map[string]int

func NewTokenCounts(tokens []string) TokenCounts {
	tc := TokenCounts{}
	tc.Add(tokens...)
	return tc
}

func (tc TokenCounts) Add(tokens ...string) {
	for _, t := range tokens {
		tc[t]++
	}
}

func (tc TokenCounts) Total() int {
	total := 0
	for _, c := range tc {
		total += c
	}
	return total
}

// Elements returns every token as often as it was counted, sorted.
func (tc TokenCounts) Elements() []string {
	keys := make([]string, 0, len(tc))
	for k := range tc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	elements := make([]string, 0, tc.Total())
	for _, k := range keys {
		for i := 0; i < tc[k]; i++ {
			elements = append(elements, k)
		}
	}
	return elements
}

type ParsedEntry struct {
	Source  string
	IsSpam  bool
	Sender  CleanAddress
	Subject TokenCounts
	Body    TokenCounts
}

// ParseError is a soft, per-item failure. It never aborts a batch.
type ParseError struct {
	Source  string
	Message string
}

func (pe *ParseError) Error() string {
	if len(pe.Source) == 0 {
		return pe.Message
	}
	return fmt.Sprintf("%s: %s", pe.Source, pe.Message)
}

type TokenStats struct {
	Token     string
	SpamCount int
	HamCount  int
	Prior     float64
}

// LogSink receives human readable status and error lines and returns the formatted line.
type LogSink func(message string, isError bool) string

// ProgressObserver is notified after every processed item of a batch.
type ProgressObserver func(current, total int)
