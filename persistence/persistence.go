// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/CrawX/go-imap-corpus/domain"
	"github.com/CrawX/go-imap-corpus/log"
	"github.com/CrawX/go-imap-corpus/persistence/migrations"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
)

type dbMail struct {
	Id         int64
	Class      int
	Uid        uint32
	MailIdHash string
	FolderName string
	Subject    string
	Failed     bool
}

func (m dbMail) toDomain() *domain.SavedImapMail {
	return &domain.SavedImapMail{
		Id:         m.Id,
		Class:      domain.MailClass(m.Class),
		Uid:        m.Uid,
		MailIdHash: m.MailIdHash,
		FolderName: m.FolderName,
		Subject:    m.Subject,
		Failed:     m.Failed,
	}
}

// Persistence is the sqlite backed ledger of ingested folders and mails.
type Persistence struct {
	db *sqlx.DB
	l  *logrus.Logger
}

func NewPersistence(datasource string) (*Persistence, error) {
	db, err := sqlx.Connect("sqlite3", datasource)
	if err != nil {
		return nil, fmt.Errorf("could not open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	l := log.Logger(log.LOG_PERSISTENCE)
	l.WithField("file", datasource).Info("Connected")

	_, err = db.Exec(`PRAGMA journal_mode=WAL`)
	if err != nil {
		return nil, fmt.Errorf("could not set journal mode: %w", err)
	}
	_, err = db.Exec(`PRAGMA synchronous=normal`)
	if err != nil {
		return nil, fmt.Errorf("could not set synchronous mode: %w", err)
	}

	appliedMigrations, err := migrate.Exec(db.DB, "sqlite3", migrations.Source(), migrate.Up)
	if err != nil {
		return nil, fmt.Errorf("could not migrate to newest version: %w", err)
	}

	l.WithField("migrations", appliedMigrations).Debug("Executed migrations")

	return &Persistence{
		db: db,
		l:  l,
	}, nil
}

func (p *Persistence) Close() error {
	err := p.db.Close()
	if err != nil {
		return fmt.Errorf("could not close db: %w", err)
	}
	p.l.Info("Disconnected")
	return nil
}

func (p *Persistence) AllFolders() ([]*domain.ImapFolder, error) {
	dbFolders := []struct {
		Name        string
		UidValidity uint32
	}{}

	err := p.db.Select(
		&dbFolders,
		`SELECT name, uidvalidity from folders`,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}

	folders := []*domain.ImapFolder{}
	for _, f := range dbFolders {
		folders = append(folders, &domain.ImapFolder{Name: f.Name, UidValidity: f.UidValidity})
	}

	p.l.WithField("Count", len(folders)).Debug("Found folders")

	return folders, nil
}

func (p *Persistence) SaveFolder(name string, uidValidity uint32) error {
	_, err := p.db.Exec(
		"INSERT OR REPLACE INTO folders (name, uidvalidity) VALUES (?, ?)",
		name,
		uidValidity,
	)
	if err != nil {
		return fmt.Errorf("could not save folder: %w", err)
	}

	p.l.WithFields(logrus.Fields{"Name": name, "UidValidity": uidValidity}).Debug("Persisted folder")
	return nil
}

func (p *Persistence) GetMailsInFolder(class domain.MailClass, folder string) ([]*domain.SavedImapMail, error) {
	dbMails := []dbMail{}

	err := p.db.Select(
		&dbMails,
		`SELECT id, class, uid, mailidhash, foldername, subject, failed from messages WHERE class = ? AND foldername = ? ORDER BY id`,
		int(class),
		folder,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}

	mails := []*domain.SavedImapMail{}
	for _, m := range dbMails {
		mails = append(mails, m.toDomain())
	}

	return mails, nil
}

func (p *Persistence) FindMailByFolderHash(class domain.MailClass, folder string, mailIdHash string) (*domain.SavedImapMail, error) {
	m := dbMail{}

	err := p.db.Get(
		&m,
		"SELECT id, class, uid, mailidhash, foldername, subject, failed from messages WHERE class = ? AND foldername = ? AND mailidhash = ?",
		int(class),
		folder,
		mailIdHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}

	return m.toDomain(), nil
}

// HashesExist reports which of mailIdHashes were already ingested as class, in any folder.
func (p *Persistence) HashesExist(class domain.MailClass, mailIdHashes []string) (map[string]bool, error) {
	result := map[string]bool{}
	if len(mailIdHashes) == 0 {
		return result, nil
	}

	qry, args, err := sqlx.Named(
		"SELECT mailidhash from messages WHERE class = :class AND mailidhash IN (:hashes)",
		map[string]interface{}{
			"class":  int(class),
			"hashes": mailIdHashes,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("could not create query: %w", err)
	}

	qry, args, err = sqlx.In(qry, args...)
	if err != nil {
		return nil, fmt.Errorf("could not replace IN in query: %w", err)
	}

	hashes := []string{}
	err = p.db.Select(&hashes, qry, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}

	for _, hash := range hashes {
		result[hash] = true
	}

	return result, nil
}

func (p *Persistence) UpdateUid(id int64, uid uint32) error {
	result, err := p.db.Exec(
		"UPDATE messages set uid = ? WHERE id = ?",
		uid, id,
	)
	if err != nil {
		return fmt.Errorf("could not update uid: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get num of affected rows: %w", err)
	}

	if affected != 1 {
		return fmt.Errorf("unexpected number of affected rows, expected 1 got %d", affected)
	}

	return nil
}

func (p *Persistence) SaveMails(mails []domain.SaveMail) error {
	tx, err := p.db.BeginTxx(context.TODO(), nil)
	if err != nil {
		return fmt.Errorf("could not start transaction: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO messages(class, uid, mailidhash, foldername, subject, failed) VALUES(?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return txEnd(tx, fmt.Errorf("could not prepare statement: %w", err))
	}
	defer stmt.Close()

	for _, mail := range mails {
		_, err := stmt.Exec(
			int(mail.Class), mail.Uid, mail.MailIdHash, mail.FolderName, mail.Subject, mail.Failed,
		)
		if err != nil {
			return txEnd(tx, fmt.Errorf("could not save mail: %w", err))
		}
	}

	return txEnd(tx, nil)
}

func txEnd(tx *sqlx.Tx, err error) error {
	if err == nil {
		err = tx.Commit()
		if err != nil {
			return fmt.Errorf("could not commit tx: %w", err)
		}
		return nil
	}

	rollbackErr := tx.Rollback()
	if rollbackErr != nil {
		return fmt.Errorf("%s, could not rollback tx: %w", err.Error(), rollbackErr)
	}
	return err
}
