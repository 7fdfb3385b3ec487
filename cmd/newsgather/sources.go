package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pevans/newsgather/relevance"
	"github.com/pevans/newsgather/sources"
)

func newSourcesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage news sources",
	}
	cmd.AddCommand(
		newSourcesAddCommand(),
		newSourcesListCommand(),
		newSourcesShowCommand(),
		newSourcesUpdateCommand(),
		newSourcesDeleteCommand(),
		newSourcesEnableCommand(true),
		newSourcesEnableCommand(false),
	)
	return cmd
}

func newSourcesAddCommand() *cobra.Command {
	var (
		in       sources.NewSource
		disabled bool
		interval string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a source by feed URL or domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !disabled {
				now := time.Now()
				in.EnabledAt = &now
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			source, err := a.Sources.CreateSource(in)
			if err != nil {
				return fmt.Errorf("failed to create source: %w", err)
			}

			if interval != "" {
				d, err := parseDuration(interval)
				if err != nil {
					return err
				}
				s := d.String()
				if err := a.Sources.UpdateSource(source.SourceID, sources.SourceUpdate{PollingInterval: &s}); err != nil {
					return fmt.Errorf("failed to set polling interval: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created source: %s\n", source.SourceID)
			fmt.Fprintf(out, "  Name:   %s\n", source.Name)
			fmt.Fprintf(out, "  Type:   %s\n", source.SourceType)
			fmt.Fprintf(out, "  Domain: %s\n", source.CanonicalDomain)
			if source.FeedURL != "" {
				fmt.Fprintf(out, "  Feed:   %s\n", source.FeedURL)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "display name (default is the domain)")
	f.StringVar(&in.FeedURL, "feed-url", "", "RSS or Atom feed URL")
	f.StringVar(&in.CanonicalDomain, "domain", "", "site domain when there is no feed URL")
	f.StringVar(&in.SourceType, "type", string(relevance.SourceRegional), "hyperlocal, regional or national")
	f.StringVar(&in.Region, "region", "", "region the source covers")
	f.BoolVar(&in.UserSelected, "selected", false, "mark as chosen by the user")
	f.BoolVar(&disabled, "disabled", false, "create the source disabled")
	f.StringVar(&interval, "interval", "", "polling interval, e.g. 30m, 6h or 1d")
	return cmd
}

func newSourcesListCommand() *cobra.Command {
	var (
		sourceType string
		region     string
		enabled    bool
		disabled   bool
		limit      int
		offset     int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sources, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := sources.SourceFilter{Limit: limit, Offset: offset}
			if sourceType != "" {
				st, err := relevance.ParseSourceType(sourceType)
				if err != nil {
					return err
				}
				filter.Type = &st
			}
			if region != "" {
				filter.Region = &region
			}
			switch {
			case enabled && disabled:
				return fmt.Errorf("--enabled and --disabled are mutually exclusive")
			case enabled:
				filter.Enabled = &enabled
			case disabled:
				v := false
				filter.Enabled = &v
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.Sources.ListSources(filter)
			if err != nil {
				return fmt.Errorf("failed to list sources: %w", err)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			printSourcesTable(cmd.OutOrStdout(), list)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&sourceType, "type", "", "only sources of this type")
	f.StringVar(&region, "region", "", "only sources in this region")
	f.BoolVar(&enabled, "enabled", false, "only enabled sources")
	f.BoolVar(&disabled, "disabled", false, "only disabled sources")
	f.IntVar(&limit, "limit", 0, "maximum number of sources")
	f.IntVar(&offset, "offset", 0, "number of sources to skip")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newSourcesShowCommand() *cobra.Command {
	var runs int

	cmd := &cobra.Command{
		Use:   "show <source-id>",
		Short: "Show a source and its recent runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("source", args[0])
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			source, err := a.Sources.GetSource(id)
			if err != nil {
				return fmt.Errorf("failed to get source: %w", err)
			}
			history, err := a.Sources.ListRuns(id, runs)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			printSourceDetail(cmd.OutOrStdout(), source, history)
			return nil
		},
	}
	cmd.Flags().IntVar(&runs, "runs", 10, "number of recent runs to show")
	return cmd
}

func newSourcesUpdateCommand() *cobra.Command {
	var (
		name       string
		feedURL    string
		sourceType string
		region     string
		selected   bool
		interval   string
	)

	cmd := &cobra.Command{
		Use:   "update <source-id>",
		Short: "Change a source's settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("source", args[0])
			if err != nil {
				return err
			}

			var update sources.SourceUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				update.Name = &name
			}
			if flags.Changed("feed-url") {
				update.FeedURL = &feedURL
			}
			if flags.Changed("type") {
				st, err := relevance.ParseSourceType(sourceType)
				if err != nil {
					return err
				}
				update.SourceType = &st
			}
			if flags.Changed("region") {
				update.Region = &region
			}
			if flags.Changed("selected") {
				update.UserSelected = &selected
			}
			if flags.Changed("interval") {
				d, err := parseDuration(interval)
				if err != nil {
					return err
				}
				s := d.String()
				update.PollingInterval = &s
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Sources.UpdateSource(id, update); err != nil {
				return fmt.Errorf("failed to update source: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated source: %s\n", id)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "display name")
	f.StringVar(&feedURL, "feed-url", "", "RSS or Atom feed URL")
	f.StringVar(&sourceType, "type", "", "hyperlocal, regional or national")
	f.StringVar(&region, "region", "", "region the source covers")
	f.BoolVar(&selected, "selected", false, "mark as chosen by the user")
	f.StringVar(&interval, "interval", "", "polling interval, e.g. 30m, 6h or 1d")
	return cmd
}

func newSourcesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <source-id>",
		Short: "Delete a source and its run history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("source", args[0])
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Sources.DeleteSource(id); err != nil {
				return fmt.Errorf("failed to delete source: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted source: %s\n", id)
			return nil
		},
	}
}

// newSourcesEnableCommand builds "enable" or "disable". Enabling also
// clears the failure count and last error so the runner starts afresh.
func newSourcesEnableCommand(enable bool) *cobra.Command {
	use, short := "disable", "Stop polling a source"
	if enable {
		use, short = "enable", "Resume polling a source"
	}

	return &cobra.Command{
		Use:   use + " <source-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("source", args[0])
			if err != nil {
				return err
			}

			update := sources.SourceUpdate{ClearEnabledAt: !enable}
			if enable {
				now := time.Now()
				zero := 0
				update.EnabledAt = &now
				update.FailureCount = &zero
				update.ClearLastError = true
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Sources.UpdateSource(id, update); err != nil {
				return fmt.Errorf("failed to %s source: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Source %sd: %s\n", use, id)
			return nil
		},
	}
}
