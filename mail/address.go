// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"regexp"
	"strings"

	"github.com/CrawX/go-imap-corpus/domain"
)

// The pattern will not work with all edge cases, but since addresses can be spoofed anyway,
// this is enough.
var addressPattern = regexp.MustCompile(`([a-z0-9._-]+)@([a-z0-9._-]*)\.([a-z]{2,})`)

// CleanAddress extracts the first thing looking like an address from a From header.
// It never fails, unusable input gives an empty CleanAddress.
func CleanAddress(dirtyAddress string) domain.CleanAddress {
	found := addressPattern.FindStringSubmatch(strings.ToLower(dirtyAddress))
	if found == nil {
		return domain.CleanAddress{}
	}

	return domain.CleanAddress{
		Address: found[0],
		Domain:  found[2],
		TLD:     found[3],
	}
}
