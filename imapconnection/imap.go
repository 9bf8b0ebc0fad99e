// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import (
	"fmt"
	"io"

	"github.com/CrawX/go-imap-corpus/domain"
	"github.com/CrawX/go-imap-corpus/log"
	"github.com/CrawX/go-imap-corpus/mail"

	"github.com/emersion/go-imap"
	compress "github.com/emersion/go-imap-compress"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"
)

// ImapConnection reads mails from a mailbox. Folders are selected read-only and bodies are
// fetched with peek, so ingesting never changes the mailbox.
type ImapConnection struct {
	connection *client.Client

	server string

	selectedFolder string

	l *logrus.Logger
}

func NewImapConnection(server string, user string, password string) (*ImapConnection, error) {
	imapClient, err := client.DialTLS(server, nil)
	if err != nil {
		return nil, fmt.Errorf("could not dial to imap: %w", err)
	}

	return newImapConnection(imapClient, server, user, password)
}

func newImapConnection(imapClient *client.Client, server string, user string, password string) (*ImapConnection, error) {
	err := imapClient.Login(user, password)
	if err != nil {
		return nil, fmt.Errorf("could not login to imap: %w", err)
	}

	conn := &ImapConnection{
		connection: imapClient,
		server:     server,
		l:          log.Logger(log.LOG_IMAP),
	}

	baseLogger := conn.l.WithFields(logrus.Fields{"server": server})
	baseLogger.Debug("Logged in to server")

	compressClient := compress.NewClient(imapClient)
	compressSupported, err := compressClient.SupportCompress(compress.Deflate)
	if err != nil {
		return nil, fmt.Errorf("could not check for COMPRESS support: %w", err)
	}

	if compressSupported {
		err = compressClient.Compress(compress.Deflate)
		if err != nil {
			return nil, fmt.Errorf("could not enable compression: %w", err)
		}
		baseLogger.Debug("COMPRESS=DEFLATE supported on server, compression enabled")
	} else {
		baseLogger.Info("COMPRESS=DEFLATE not supported on server, fetching uncompressed")
	}

	return conn, nil
}

func (ic *ImapConnection) Select(folder string) (uint32, error) {
	m, err := ic.connection.Select(folder, true)
	if err != nil {
		return 0, fmt.Errorf("could not select folder: %w", err)
	}

	ic.selectedFolder = folder
	ic.l.WithFields(logrus.Fields{"folder": folder, "messages": m.Messages, "uidvalidity": m.UidValidity}).Debug("Selected folder")
	return m.UidValidity, nil
}

func (ic *ImapConnection) ListUids() ([]uint32, error) {
	// empty criteria match every mail in the folder
	criteria := imap.NewSearchCriteria()
	ids, err := ic.connection.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not list folder: %w", err)
	}

	return ids, nil
}

// FetchMails fetches the complete mails. A mail without Message-Id and Received headers is
// identified by a hash of its content instead.
func (ic *ImapConnection) FetchMails(uids []uint32) ([]*domain.RawImapMail, error) {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, 10)
	fullBodySection := &imap.BodySectionName{
		Peek: true,
	}

	fetchItems := []imap.FetchItem{fullBodySection.FetchItem()}
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.UidFetch(seqset, fetchItems, messages)
	}()

	mails := []*domain.RawImapMail{}
	var readErr error
	for msg := range messages {
		// keep draining so UidFetch can finish
		if readErr != nil {
			continue
		}

		rawBody, err := readSection(msg, fullBodySection)
		if err != nil {
			readErr = err
			continue
		}

		subject, mailIdHash, err := mail.MailHeaderInfos(rawBody)
		if err != nil {
			ic.l.WithError(err).WithFields(logrus.Fields{"folder": ic.selectedFolder, "uid": msg.Uid}).Debug("Identifying mail by content")
			mailIdHash = mail.ContentHash(rawBody)
		}

		mails = append(
			mails,
			&domain.RawImapMail{
				Uid:        msg.Uid,
				Subject:    subject,
				MailIdHash: mailIdHash,
				RawMail:    rawBody,
			},
		)
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not fetch mails: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}

	return mails, nil
}

func (ic *ImapConnection) FetchIdHeaders(uids []uint32) ([]*domain.ImapIdInfo, error) {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)
	section := &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{
			Specifier: imap.HeaderSpecifier,
			Fields: []string{
				"Received",
				"Message-Id",
				"Subject",
			},
		},
		Peek: true,
	}
	fetchItems := []imap.FetchItem{section.FetchItem()}

	out := make(chan *imap.Message)
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.UidFetch(seqset, fetchItems, out)
	}()

	results := []*domain.ImapIdInfo{}
	var readErr error
	for msg := range out {
		if readErr != nil {
			continue
		}

		rawHeaders, err := readSection(msg, section)
		if err != nil {
			readErr = err
			continue
		}

		subject, mailIdHash, err := mail.MailHeaderInfos(rawHeaders)
		if err != nil {
			// mails without id headers were stored under their content hash, which cannot be
			// recomputed from the headers alone
			ic.l.WithError(err).WithField("uid", msg.Uid).Debug("Skipping mail without id headers")
			continue
		}

		results = append(
			results,
			&domain.ImapIdInfo{
				Uid:        msg.Uid,
				Subject:    subject,
				MailIdHash: mailIdHash,
			},
		)
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not fetch mails: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}

	return results, nil
}

func (ic *ImapConnection) Close() error {
	return ic.connection.Logout()
}

func readSection(msg *imap.Message, section *imap.BodySectionName) ([]byte, error) {
	r := msg.GetBody(section)
	if r == nil {
		return nil, fmt.Errorf("server did not return the requested section for uid %d", msg.Uid)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read mail body: %w", err)
	}

	return raw, nil
}
