// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTestdata(t *testing.T, name string) []byte {
	raw, err := os.ReadFile(path.Join("testdata", name))
	require.NoError(t, err)
	return raw
}

func TestMailHeaderInfos(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		hash    string
		err     string
	}{
		{"simple.msg", "Lunch tomorrow?", "a45a3132db2a4848608e71cc6925e68c7cefe8cd3586f9d574ae8ab1e0d7b49c", ""},
		{"nonascii.msg", "Grüße aus München", "", ""},
		{"wrapped.msg", "", "", "Received and Message-Id header header not found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subject, hash, err := MailHeaderInfos(readTestdata(t, tc.name))

			if len(tc.err) == 0 {
				assert.NoError(t, err)
				assert.Equal(t, tc.subject, subject)
				assert.Len(t, hash, 64)
				if len(tc.hash) > 0 {
					assert.Equal(t, tc.hash, hash)
				}
			} else {
				assert.Empty(t, subject)
				assert.Empty(t, hash)
				assert.EqualError(t, err, tc.err)
			}
		})
	}
}

func TestUnwrapSpamassassinReport(t *testing.T) {
	for _, name := range []string{"simple.msg", "multipart.msg", "nonascii.msg"} {
		t.Run(name, func(t *testing.T) {
			rawMail := readTestdata(t, name)

			result, err := UnwrapSpamassassinReport(rawMail)
			assert.NoError(t, err)
			assert.Equal(t, rawMail, result)
		})
	}

	t.Run("wrapped.msg", func(t *testing.T) {
		result, err := UnwrapSpamassassinReport(readTestdata(t, "wrapped.msg"))
		assert.NoError(t, err)

		subject, hash, err := MailHeaderInfos(result)
		assert.NoError(t, err)
		assert.Equal(t, "Huge SALE today", subject)
		assert.Len(t, hash, 64)
		assert.Contains(t, string(result), "Cheap watches only today")
		assert.NotContains(t, string(result), "Spam detection software")
	})
}

func TestShortSubject(t *testing.T) {
	assert.Equal(t, "short", ShortSubject("short"))
	assert.Equal(t, "123456789012345678901234567890...", ShortSubject("1234567890123456789012345678901234567890"))
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ContentHash(nil))
	assert.NotEqual(t, ContentHash([]byte("a")), ContentHash([]byte("b")))
}
