// SPDX-License-Identifier: GPL-3.0-or-later
package domain

//go:generate mockgen -destination=mocks/persistence.go -package=mocks . Persistence
type ImapFolder struct {
	Name        string
	UidValidity uint32
}

type MailClass int

const (
	IngestedSpam = MailClass(10)
	IngestedHam  = MailClass(11)
)

func ClassOf(isSpam bool) MailClass {
	if isSpam {
		return IngestedSpam
	}
	return IngestedHam
}

type SavedImapMail struct {
	Id         int64
	Class      MailClass
	Uid        uint32
	MailIdHash string
	FolderName string
	Subject    string
	Failed     bool
}

type SaveMail struct {
	Class      MailClass
	Uid        uint32
	MailIdHash string
	FolderName string
	Subject    string
	Failed     bool
}

// Persistence is the ledger of mails that were already ingested from a mailbox.
type Persistence interface {
	Close() error
	AllFolders() ([]*ImapFolder, error)
	SaveFolder(name string, uidValidity uint32) error
	GetMailsInFolder(class MailClass, folder string) ([]*SavedImapMail, error)
	FindMailByFolderHash(class MailClass, folder string, mailIdHash string) (*SavedImapMail, error)
	HashesExist(class MailClass, mailIdHashes []string) (map[string]bool, error)
	UpdateUid(id int64, uid uint32) error
	SaveMails(mails []SaveMail) error
}
