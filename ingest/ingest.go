// SPDX-License-Identifier: GPL-3.0-or-later
package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/CrawX/go-imap-corpus/corpus"
	"github.com/CrawX/go-imap-corpus/domain"
	"github.com/CrawX/go-imap-corpus/log"
	"github.com/CrawX/go-imap-corpus/mail"

	"github.com/sirupsen/logrus"
)

const DefaultBatchSize = 50

// Corpus receives the fetched mails.
type Corpus interface {
	ParseRaw(source string, raw []byte, isSpam, silent bool) corpus.Result
	AddError(pe domain.ParseError)
}

// Ingester feeds the mails of IMAP folders into a corpus, in batches of BatchSize uids. A mail
// found in several folders of the same class is ingested once.
type Ingester struct {
	persistence    domain.Persistence
	imapConnection domain.ImapConnector
	corpus         Corpus

	configuration *configuration

	seen map[string]bool

	l *logrus.Logger
}

// NewIngester creates an Ingester. persistence may be nil unless the Incremental option is used.
func NewIngester(persistence domain.Persistence, imapConnection domain.ImapConnector, c Corpus, configFunc ...ConfigFunc) (*Ingester, error) {
	config := &configuration{
		BatchSize: DefaultBatchSize,
		Progress:  func(int, int) {},
	}
	for _, f := range configFunc {
		err := f(config)
		if err != nil {
			return nil, fmt.Errorf("error applying configuration: %w", err)
		}
	}

	if config.Incremental && persistence == nil {
		return nil, fmt.Errorf("incremental ingestion needs a ledger")
	}

	return &Ingester{
		persistence:    persistence,
		imapConnection: imapConnection,
		corpus:         c,
		configuration:  config,
		seen:           map[string]bool{},
		l:              log.Logger(log.LOG_INGEST),
	}, nil
}

// Learn ingests every mail of folders labeled as spam or ham. Mails that cannot be parsed end up in
// the error log of the corpus, failures of the mailbox or the ledger abort.
func (in *Ingester) Learn(ctx context.Context, folders []string, isSpam bool) error {
	class := domain.ClassOf(isSpam)

	var knownFolders []*domain.ImapFolder
	if in.configuration.Incremental {
		var err error
		knownFolders, err = in.persistence.AllFolders()
		if err != nil {
			return fmt.Errorf("could not list known folders: %w", err)
		}
	}

	for _, f := range folders {
		uidvalidity, err := in.imapConnection.Select(f)
		if err != nil {
			return fmt.Errorf("could not select folder %s: %w", f, err)
		}

		newMailUids, err := in.getNewMailUids(f, class, knownFolders, uidvalidity)
		if err != nil {
			return fmt.Errorf("could not determine new mail uids: %w", err)
		}

		baseFolderLogger := in.l.WithFields(logrus.Fields{"folder": f, "spam": isSpam})

		if len(newMailUids) == 0 {
			baseFolderLogger.WithFields(logrus.Fields{"newmails": 0}).Info("Folder contains no new mails to ingest")
			err = in.saveFolder(f, uidvalidity)
			if err != nil {
				return err
			}
			continue
		}

		batches := partitionUids(newMailUids, in.configuration.BatchSize)
		baseFolderLogger.WithFields(logrus.Fields{"newmails": len(newMailUids), "batches": len(batches)}).Info("Found mails to ingest")

		processed, failed := 0, 0
		for _, batch := range batches {
			err = ctx.Err()
			if err != nil {
				return err
			}

			start := time.Now()
			baseFolderLogger.WithFields(logrus.Fields{"batchsize": len(batch)}).Debug("Ingesting batch")

			mails, err := in.imapConnection.FetchMails(batch)
			if err != nil {
				return fmt.Errorf("could not fetch mail batch: %w", err)
			}
			baseFolderLogger.WithFields(logrus.Fields{"duration": time.Since(start)}).Debug("Fetched mail batch")

			saveMails, err := in.ingestBatch(f, class, isSpam, mails)
			if err != nil {
				return err
			}

			for _, m := range saveMails {
				if m.Failed {
					failed++
				}
			}

			if in.configuration.Incremental {
				if in.configuration.DryRun {
					baseFolderLogger.WithFields(logrus.Fields{"batchsize": len(saveMails)}).Debug("Not recording batch due to dry-run")
				} else {
					err = in.persistence.SaveMails(saveMails)
					if err != nil {
						return fmt.Errorf("could not save mails: %w", err)
					}
				}
			}

			processed += len(batch)
			in.configuration.Progress(processed, len(newMailUids))
			baseFolderLogger.WithFields(logrus.Fields{"duration": time.Since(start), "batchsize": len(batch)}).Debug("Ingested batch")
		}

		err = in.saveFolder(f, uidvalidity)
		if err != nil {
			return err
		}

		baseFolderLogger.WithFields(logrus.Fields{"newmails": len(newMailUids), "batches": len(batches), "failed": failed}).Info("Ingested mails")
	}

	return nil
}

func (in *Ingester) ingestBatch(folder string, class domain.MailClass, isSpam bool, mails []*domain.RawImapMail) ([]domain.SaveMail, error) {
	known := map[string]bool{}
	if in.configuration.Incremental {
		hashes := make([]string, len(mails))
		for i, m := range mails {
			hashes[i] = m.MailIdHash
		}

		var err error
		known, err = in.persistence.HashesExist(class, hashes)
		if err != nil {
			return nil, fmt.Errorf("could not look up known mails: %w", err)
		}
	}

	saveMails := []domain.SaveMail{}
	for _, m := range mails {
		save := domain.SaveMail{
			Class:      class,
			Uid:        m.Uid,
			MailIdHash: m.MailIdHash,
			FolderName: folder,
			Subject:    m.Subject,
		}

		seenKey := fmt.Sprintf("%d:%s", class, m.MailIdHash)
		if known[m.MailIdHash] || in.seen[seenKey] {
			in.l.WithFields(logrus.Fields{"folder": folder, "subject": mail.ShortSubject(m.Subject)}).Debug("Skipping mail already ingested")
			saveMails = append(saveMails, save)
			continue
		}
		in.seen[seenKey] = true

		source := fmt.Sprintf("imap:%s/%d", folder, m.Uid)
		result := in.corpus.ParseRaw(source, m.RawMail, isSpam, true)
		if !result.Ok() {
			in.l.WithFields(logrus.Fields{"folder": folder, "subject": mail.ShortSubject(m.Subject), "error": result.Err.Message}).Warn("Could not ingest mail")
			in.corpus.AddError(*result.Err)
			save.Failed = true
		}

		saveMails = append(saveMails, save)
	}

	return saveMails, nil
}

func (in *Ingester) saveFolder(folder string, uidvalidity uint32) error {
	if !in.configuration.Incremental {
		return nil
	}
	if in.configuration.DryRun {
		in.l.WithField("folder", folder).Debug("Not recording folder due to dry-run")
		return nil
	}

	err := in.persistence.SaveFolder(folder, uidvalidity)
	if err != nil {
		return fmt.Errorf("could not save uidvalidity for %s: %w", folder, err)
	}
	return nil
}

func (in *Ingester) getNewMailUids(folder string, class domain.MailClass, knownFolders []*domain.ImapFolder, uidValidity uint32) ([]uint32, error) {
	newMails, err := in.imapConnection.ListUids()
	if err != nil {
		return nil, fmt.Errorf("could not list uids in folder: %w", err)
	}

	knownFolder := folderByName(knownFolders, folder)
	in.l.WithFields(logrus.Fields{"folder": folder, "known": knownFolder != nil, "mails": len(newMails)}).Debug("Listed all uids in folder")

	if knownFolder != nil && knownFolder.UidValidity == uidValidity {
		in.l.WithFields(logrus.Fields{"folder": folder}).Debug("Folder is known and the uid validity hasn't changed, fast uid-based scan is possible")
		knownMails, err := in.persistence.GetMailsInFolder(class, folder)
		if err != nil {
			return nil, fmt.Errorf("could not list known uids: %w", err)
		}

		for _, m := range knownMails {
			newMails = removeUid(newMails, m.Uid)
		}
	} else if knownFolder != nil && len(newMails) > 0 {
		in.l.WithFields(logrus.Fields{"folder": folder}).Debug("Folder is known but the uid validity has changed, falling back to header-based scan")
		mailIds, err := in.imapConnection.FetchIdHeaders(newMails)
		if err != nil {
			return nil, fmt.Errorf("could not list mail headers for folder: %w", err)
		}

		for _, m := range mailIds {
			knownMail, err := in.persistence.FindMailByFolderHash(class, folder, m.MailIdHash)
			if err != nil {
				return nil, fmt.Errorf("could not lookup mail via mailIdHash: %w", err)
			}

			if knownMail != nil {
				in.l.WithFields(logrus.Fields{"folder": folder, "subject": mail.ShortSubject(knownMail.Subject)}).Debug("Is known by hash, updating uid")
				if !in.configuration.DryRun {
					err = in.persistence.UpdateUid(knownMail.Id, m.Uid)
					if err != nil {
						return nil, fmt.Errorf("could not update uid: %w", err)
					}
				}

				newMails = removeUid(newMails, m.Uid)
			}
		}
	} else if knownFolder == nil && in.configuration.Incremental {
		in.l.WithFields(logrus.Fields{"folder": folder}).Debug("Folder is a previously unknown folder, no diff possible")
	}

	sort.Slice(newMails, func(i, j int) bool { return newMails[i] < newMails[j] })
	return newMails, nil
}

func folderByName(knownFolders []*domain.ImapFolder, folder string) *domain.ImapFolder {
	for i := 0; i < len(knownFolders); i++ {
		if knownFolders[i].Name == folder {
			return knownFolders[i]
		}
	}
	return nil
}

func removeUid(newMails []uint32, uid uint32) []uint32 {
	for i := 0; i < len(newMails); i++ {
		if uid == newMails[i] {
			newMails[len(newMails)-1], newMails[i] = newMails[i], newMails[len(newMails)-1]
			newMails = newMails[:len(newMails)-1]
			break
		}
	}
	return newMails
}

// taken from https://github.com/golang/go/wiki/SliceTricks
func partitionUids(uids []uint32, partitionSize int) [][]uint32 {
	batches := make([][]uint32, 0, (len(uids)+partitionSize-1)/partitionSize)

	for partitionSize < len(uids) {
		uids, batches = uids[partitionSize:], append(batches, uids[0:partitionSize:partitionSize])
	}
	batches = append(batches, uids)

	return batches
}
