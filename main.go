// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/CrawX/go-imap-corpus/aggregate"
	"github.com/CrawX/go-imap-corpus/config"
	"github.com/CrawX/go-imap-corpus/corpus"
	"github.com/CrawX/go-imap-corpus/domain"
	"github.com/CrawX/go-imap-corpus/imapconnection"
	"github.com/CrawX/go-imap-corpus/ingest"
	"github.com/CrawX/go-imap-corpus/log"
	"github.com/CrawX/go-imap-corpus/mail"
	"github.com/CrawX/go-imap-corpus/mbox"
	"github.com/CrawX/go-imap-corpus/normalize"
	"github.com/CrawX/go-imap-corpus/persistence"
	"github.com/CrawX/go-imap-corpus/progress"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type flags struct {
	configFile  string
	loglevel    string
	top         int
	threshold   float64
	csvFile     string
	logFile     string
	incremental bool
	dryRun      bool
}

func main() {
	log.InitLogging("info")
	logger := log.Logger(log.LOG_MAIN)

	f := &flags{}
	rootCmd := &cobra.Command{
		Use:          "imapcorpus",
		Short:        "Build a token corpus from spam and ham mails and report the spammiest tokens",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.ReadConfig(f.configFile)
			if err != nil {
				return fmt.Errorf("could not load config: %w", err)
			}
			applyFlags(cmd, f, conf)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if f.logFile != "" {
				out, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("could not open log file: %w", err)
				}
				defer out.Close()
				log.SetOutput(out)
			}

			return run(ctx, conf, f.csvFile)
		},
	}

	rootCmd.Flags().StringVarP(&f.configFile, "config", "c", "config.toml", "path to the TOML config file")
	rootCmd.Flags().StringVar(&f.loglevel, "loglevel", "", "log level (debug, info, warn, error), overrides the config")
	rootCmd.Flags().IntVar(&f.top, "top", 0, "number of tokens to report, overrides the config")
	rootCmd.Flags().Float64Var(&f.threshold, "threshold", 0, "minimum spam prior of reported tokens, overrides the config")
	rootCmd.Flags().StringVar(&f.csvFile, "csv", "", "write the report as CSV to this file instead of printing a table")
	rootCmd.Flags().StringVar(&f.logFile, "logfile", "", "append log lines to this file instead of stderr, keeping the terminal for the progress bar")
	rootCmd.Flags().BoolVar(&f.incremental, "incremental", false, "skip IMAP mails recorded by an earlier run")
	rootCmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "never write the ledger")

	if err := rootCmd.Execute(); err != nil {
		logger.WithField("error", err).Fatal("Building the corpus failed")
	}
}

func applyFlags(cmd *cobra.Command, f *flags, conf *config.Config) {
	if cmd.Flags().Changed("loglevel") {
		conf.Loglevel = &f.loglevel
	}
	if cmd.Flags().Changed("top") && f.top > 0 {
		conf.Top = f.top
	}
	if cmd.Flags().Changed("threshold") && f.threshold >= 0 && f.threshold < 1 {
		conf.PriorThreshold = f.threshold
	}
	if f.incremental && conf.UsesImap() {
		conf.Incremental = true
	}
	if f.dryRun {
		conf.DryRun = true
	}
}

func run(ctx context.Context, conf *config.Config, csvFile string) error {
	logger := log.Logger(log.LOG_MAIN)

	loglevel := "info"
	if conf.Loglevel != nil {
		loglevel = *conf.Loglevel
		log.SetLogLevel(loglevel)
	}

	observer, stopProgress := progress.ForLevel(loglevel, logger)
	defer stopProgress()

	rules, err := conf.NormalizeRules()
	if err != nil {
		return err
	}
	decomposerFuncs := []mail.DecomposerFunc{mail.WithNormalizer(normalize.New(rules...))}
	if conf.HTMLToText {
		decomposerFuncs = append(decomposerFuncs, mail.WithHTMLToText())
	}

	c := corpus.New(
		corpus.WithDecomposer(mail.NewDecomposer(decomposerFuncs...)),
		corpus.WithProgress(observer),
		corpus.WithConcurrency(conf.Concurrency),
	)

	if err = parseDirs(c, conf.SpamDirs, true); err != nil {
		return err
	}
	if err = parseDirs(c, conf.HamDirs, false); err != nil {
		return err
	}

	if err = parseMboxes(ctx, c, conf.SpamMboxes, true); err != nil {
		return err
	}
	if err = parseMboxes(ctx, c, conf.HamMboxes, false); err != nil {
		return err
	}

	if conf.UsesImap() {
		if err = learnImap(ctx, conf, c, observer); err != nil {
			return err
		}
	}
	stopProgress()

	if c.ParseErrors(false) > 0 {
		c.ShowParseErrors()
	}

	fields, err := conf.AggregateFields()
	if err != nil {
		return err
	}
	stats := aggregate.Aggregate(c.Entries(),
		aggregate.WithLengthBounds(conf.LengthMin, conf.LengthMax),
		aggregate.WithFields(fields),
	)
	report := aggregate.Report(stats, conf.PriorThreshold, conf.Top)
	logger.WithFields(logrus.Fields{"entries": c.Len(), "tokens": len(stats), "reported": len(report)}).Info("Aggregated corpus")

	if csvFile == "" {
		return aggregate.WriteTable(os.Stdout, report)
	}

	out, err := os.Create(csvFile)
	if err != nil {
		return fmt.Errorf("could not create report file: %w", err)
	}
	defer out.Close()

	err = aggregate.WriteCSV(out, report)
	if err != nil {
		return fmt.Errorf("could not write report: %w", err)
	}
	logger.WithField("file", csvFile).Info("Wrote report")
	return out.Close()
}

func parseDirs(c *corpus.Builder, dirs []string, isSpam bool) error {
	for _, dir := range dirs {
		err := c.ParseFolder(dir, isSpam)
		if err != nil {
			return err
		}
	}
	return nil
}

func parseMboxes(ctx context.Context, c *corpus.Builder, paths []string, isSpam bool) error {
	for _, path := range paths {
		src, err := mbox.Open(path)
		if err != nil {
			return err
		}

		err = c.ParseSource(ctx, src, isSpam)
		src.Close()
		if err != nil {
			return fmt.Errorf("could not parse %s: %w", path, err)
		}
	}
	return nil
}

func learnImap(ctx context.Context, conf *config.Config, c *corpus.Builder, observer domain.ProgressObserver) error {
	logger := log.Logger(log.LOG_MAIN)

	configs := []ingest.ConfigFunc{ingest.Progress(observer)}
	if conf.DryRun {
		configs = append(configs, ingest.DryRun())
	}

	var ledger domain.Persistence
	if conf.Incremental {
		p, err := persistence.NewPersistence(conf.Database)
		if err != nil {
			return fmt.Errorf("could not connect to database: %w", err)
		}
		defer p.Close()

		ledger = p
		configs = append(configs, ingest.Incremental())
	}

	imapConn, err := imapconnection.NewImapConnection(conf.ImapHost, conf.User, conf.Password)
	if err != nil {
		return fmt.Errorf("could not start imap connector: %w", err)
	}
	defer imapConn.Close()

	in, err := ingest.NewIngester(ledger, imapConn, c, configs...)
	if err != nil {
		return fmt.Errorf("could not start ingester: %w", err)
	}

	logger.WithFields(logrus.Fields{"spamfolders": conf.SpamLearnFolders, "hamfolders": conf.HamLearnFolders, "incremental": conf.Incremental, "dryrun": conf.DryRun}).Info("Ingesting IMAP folders")
	if conf.DryRun && conf.Incremental {
		logger.Warn("Not recording ingested mails due to dry-run")
	}

	if len(conf.SpamLearnFolders) > 0 {
		err = in.Learn(ctx, conf.SpamLearnFolders, true)
		if err != nil {
			return fmt.Errorf("ingesting spam failed: %w", err)
		}
	}

	if len(conf.HamLearnFolders) > 0 {
		err = in.Learn(ctx, conf.HamLearnFolders, false)
		if err != nil {
			return fmt.Errorf("ingesting ham failed: %w", err)
		}
	}

	return nil
}
