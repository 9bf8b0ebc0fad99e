// SPDX-License-Identifier: GPL-3.0-or-later
package aggregate

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/CrawX/go-imap-corpus/domain"
)

const (
	DefaultPriorThreshold = 0.75
	DefaultTop            = 20
)

// Filter keeps the stats with a prior strictly above minPrior.
func Filter(stats []domain.TokenStats, minPrior float64) []domain.TokenStats {
	filtered := []domain.TokenStats{}
	for _, s := range stats {
		if s.Prior > minPrior {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// SortBySpam orders stats by descending spam count, ties by token.
func SortBySpam(stats []domain.TokenStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].SpamCount != stats[j].SpamCount {
			return stats[i].SpamCount > stats[j].SpamCount
		}
		return stats[i].Token < stats[j].Token
	})
}

func Top(stats []domain.TokenStats, n int) []domain.TokenStats {
	if n < 0 || n >= len(stats) {
		return stats
	}
	return stats[:n]
}

// Report is the default view: tokens above threshold, most frequent in spam first.
func Report(stats []domain.TokenStats, threshold float64, top int) []domain.TokenStats {
	view := Filter(stats, threshold)
	SortBySpam(view)
	return Top(view, top)
}

func WriteTable(w io.Writer, stats []domain.TokenStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, err := fmt.Fprintln(tw, "token\tspam\tham\tprior")
	if err != nil {
		return fmt.Errorf("could not write table header: %w", err)
	}

	for _, s := range stats {
		_, err = fmt.Fprintf(tw, "%s\t%d\t%d\t%.4f\n", s.Token, s.SpamCount, s.HamCount, s.Prior)
		if err != nil {
			return fmt.Errorf("could not write table row: %w", err)
		}
	}

	return tw.Flush()
}

func WriteCSV(w io.Writer, stats []domain.TokenStats) error {
	cw := csv.NewWriter(w)
	err := cw.Write([]string{"token", "spam", "ham", "prior"})
	if err != nil {
		return fmt.Errorf("could not write csv header: %w", err)
	}

	for _, s := range stats {
		err = cw.Write([]string{
			s.Token,
			strconv.Itoa(s.SpamCount),
			strconv.Itoa(s.HamCount),
			strconv.FormatFloat(s.Prior, 'f', -1, 64),
		})
		if err != nil {
			return fmt.Errorf("could not write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
