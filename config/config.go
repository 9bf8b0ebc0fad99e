// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/CrawX/go-imap-corpus/aggregate"
	"github.com/CrawX/go-imap-corpus/normalize"

	"github.com/BurntSushi/toml"
)

// Rule replaces the default normalization rules when at least one is configured.
type Rule struct {
	Pattern     string
	Replacement string
}

type Config struct {
	Database    string
	Incremental bool
	DryRun      bool

	ImapHost string
	User     string
	Password string

	SpamLearnFolders []string
	HamLearnFolders  []string

	SpamDirs []string
	HamDirs  []string

	SpamMboxes []string
	HamMboxes  []string

	LengthMin      int
	LengthMax      int
	Fields         []string
	PriorThreshold float64
	Top            int

	Concurrency int
	HTMLToText  bool

	Rules []Rule

	Loglevel *string
}

func defaultConfig() *Config {
	return &Config{
		Database:       "persistence.db",
		LengthMin:      aggregate.DefaultLengthMin,
		LengthMax:      aggregate.DefaultLengthMax,
		Fields:         []string{"body"},
		PriorThreshold: aggregate.DefaultPriorThreshold,
		Top:            aggregate.DefaultTop,
		Concurrency:    1,
	}
}

func ReadConfig(filename string) (*Config, error) {
	config := defaultConfig()

	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	err = config.validate()
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) UsesImap() bool {
	return len(c.SpamLearnFolders) > 0 || len(c.HamLearnFolders) > 0
}

// NormalizeRules compiles the configured rules, or returns the default rules if none are set.
func (c *Config) NormalizeRules() ([]normalize.Rule, error) {
	if len(c.Rules) == 0 {
		return normalize.DefaultRules, nil
	}

	rules := make([]normalize.Rule, 0, len(c.Rules))
	for i, r := range c.Rules {
		rule, err := normalize.NewRule(r.Pattern, r.Replacement)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (c *Config) AggregateFields() (aggregate.Field, error) {
	var fields aggregate.Field
	for _, f := range c.Fields {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "body":
			fields |= aggregate.Body
		case "subject":
			fields |= aggregate.Subject
		default:
			return 0, fmt.Errorf("unknown field %q, use body or subject", f)
		}
	}
	return fields, nil
}

func (c *Config) validate() error {
	if !c.UsesImap() && len(c.SpamDirs)+len(c.HamDirs)+len(c.SpamMboxes)+len(c.HamMboxes) == 0 {
		return fmt.Errorf("nothing to ingest, set at least one of SpamLearnFolders, HamLearnFolders, SpamDirs, HamDirs, SpamMboxes or HamMboxes")
	}

	if c.UsesImap() {
		if err := validateNonEmptyStringField(c.ImapHost, "ImapHost must not be empty, set to host:port of the imap server"); err != nil {
			return err
		}

		if err := validateNonEmptyStringField(c.User, "User must not be empty, set to username on the imap server"); err != nil {
			return err
		}

		if err := validateNonEmptyStringField(c.Password, "Password must not be empty, set to password of User on the imap server"); err != nil {
			return err
		}
	}

	if c.Incremental {
		if !c.UsesImap() {
			return fmt.Errorf("Incremental needs SpamLearnFolders or HamLearnFolders")
		}
		if err := validateNonEmptyStringField(c.Database, "Database name must not be empty, set to a filename for the sqlite database"); err != nil {
			return err
		}
	}

	if c.LengthMin < 0 || c.LengthMax <= c.LengthMin+1 {
		return fmt.Errorf("LengthMin %d and LengthMax %d leave no token length, both bounds are exclusive", c.LengthMin, c.LengthMax)
	}

	if len(c.Fields) == 0 {
		return fmt.Errorf("Fields must not be empty, set to body, subject or both")
	}
	if _, err := c.AggregateFields(); err != nil {
		return err
	}

	if c.PriorThreshold < 0 || c.PriorThreshold >= 1 {
		return fmt.Errorf("PriorThreshold must be in [0, 1), got %v", c.PriorThreshold)
	}

	if c.Top < 1 {
		return fmt.Errorf("Top must be positive, got %d", c.Top)
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("Concurrency must be positive, got %d", c.Concurrency)
	}

	if _, err := c.NormalizeRules(); err != nil {
		return fmt.Errorf("invalid Rules: %w", err)
	}

	return nil
}

func validateNonEmptyStringField(field string, err string) error {
	if len(strings.TrimSpace(field)) == 0 {
		return errors.New(err)
	}

	return nil
}
