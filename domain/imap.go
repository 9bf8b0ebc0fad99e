// SPDX-License-Identifier: GPL-3.0-or-later
package domain

//go:generate mockgen -destination=mocks/imap.go -package=mocks . ImapConnector
type RawImapMail struct {
	Uid        uint32
	Subject    string
	MailIdHash string
	RawMail    []byte
}

type ImapIdInfo struct {
	Uid        uint32
	Subject    string
	MailIdHash string
}

// ImapConnector is a read-only view of a mailbox.
type ImapConnector interface {
	Select(folder string) (uint32, error)
	ListUids() ([]uint32, error)
	FetchMails(uids []uint32) ([]*RawImapMail, error)
	FetchIdHeaders(uids []uint32) ([]*ImapIdInfo, error)

	Close() error
}
