package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pevans/newsgather/outbox"
	"github.com/pevans/newsgather/sources"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printSourcesTable prints sources one per row.
func printSourcesTable(w io.Writer, list []sources.Source) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No sources configured.")
		return
	}

	fmt.Fprintf(w, "%-36s %-10s %-12s %-30s %s\n", "ID", "TYPE", "REGION", "NAME", "FEED URL")
	for _, source := range list {
		marker := ""
		if !source.IsEnabled() {
			marker = " (disabled)"
		}
		fmt.Fprintf(w, "%-36s %-10s %-12s %-30s %s%s\n",
			source.SourceID.String(),
			source.SourceType,
			truncate(source.Region, 12),
			truncate(source.Name, 30),
			truncate(source.FeedURL, 50),
			marker,
		)
	}
}

// printSourceDetail prints one source with its recent runs.
func printSourceDetail(w io.Writer, source *sources.Source, runs []sources.Run) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, source.Name)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "ID:          %s\n", source.SourceID)
	fmt.Fprintf(w, "Type:        %s\n", source.SourceType)
	fmt.Fprintf(w, "Region:      %s\n", orDash(source.Region))
	fmt.Fprintf(w, "Feed URL:    %s\n", orDash(source.FeedURL))
	fmt.Fprintf(w, "Domain:      %s\n", source.CanonicalDomain)
	fmt.Fprintf(w, "Selected:    %t\n", source.UserSelected)
	fmt.Fprintln(w)

	if source.EnabledAt != nil {
		fmt.Fprintf(w, "Status:      ✓ Enabled (since %s)\n", source.EnabledAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintln(w, "Status:      ✗ Disabled")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Operational Info:")
	if source.LastRunAt != nil {
		fmt.Fprintf(w, "  Last Run:        %s\n", source.LastRunAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintln(w, "  Last Run:        Never")
	}
	if source.LastMethod != nil {
		fmt.Fprintf(w, "  Last Method:     %s\n", *source.LastMethod)
	}
	if source.PollingInterval != nil {
		fmt.Fprintf(w, "  Poll Interval:   %s\n", *source.PollingInterval)
	} else {
		fmt.Fprintln(w, "  Poll Interval:   Default")
	}
	fmt.Fprintf(w, "  Failures:        %d\n", source.FailureCount)
	if source.LastError != nil {
		fmt.Fprintf(w, "  Last Error:      %s\n", wrapText(*source.LastError, 60, "                   "))
	}

	if len(runs) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recent Runs:")
	for _, run := range runs {
		status := "✓"
		if !run.Success {
			status = "✗"
		}
		fmt.Fprintf(w, "  %s %s  %-24s found %d, scraped %d\n",
			status,
			run.RanAt.Format("2006-01-02 15:04"),
			orDash(run.Method),
			run.ArticlesFound,
			run.ArticlesScraped,
		)
	}
}

// printBatchesTable prints outbox batches one per row, newest first.
func printBatchesTable(w io.Writer, batches []outbox.Batch) {
	if len(batches) == 0 {
		fmt.Fprintln(w, "Outbox is empty.")
		return
	}

	fmt.Fprintf(w, "%-36s %-16s %-20s %-14s %-24s %s\n", "ID", "CREATED", "SOURCE", "TOPIC", "METHOD", "ARTICLES")
	for _, b := range batches {
		method := b.Result.Method
		if !b.Result.Success {
			method += " ✗"
		}
		fmt.Fprintf(w, "%-36s %-16s %-20s %-14s %-24s %d/%d\n",
			b.ID.String(),
			b.CreatedAt.Local().Format("2006-01-02 15:04"),
			truncate(b.SourceName, 20),
			truncate(b.Topic, 14),
			method,
			b.Result.ArticlesScraped,
			b.Result.ArticlesFound,
		)
	}
}

// printRunSummary prints one line per batch produced by a run.
func printRunSummary(w io.Writer, batches []*outbox.Batch, elapsed time.Duration) {
	for _, b := range batches {
		status := "✓"
		if !b.Result.Success {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s [%s] %s: %d of %d articles kept\n",
			status, b.SourceName, b.Topic, orDash(b.Result.Method),
			b.Result.ArticlesScraped, b.Result.ArticlesFound)
		for _, e := range b.Result.Errors {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}
	fmt.Fprintf(w, "\nCompleted in %s\n", elapsed.Round(time.Millisecond))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// wrapText wraps text at the specified width with the given indent
func wrapText(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	lineLen := 0
	for i, word := range words {
		if i > 0 && lineLen+1+len(word) > width {
			b.WriteString("\n")
			b.WriteString(indent)
			lineLen = 0
		} else if i > 0 {
			b.WriteString(" ")
			lineLen++
		}
		b.WriteString(word)
		lineLen += len(word)
	}
	return b.String()
}
