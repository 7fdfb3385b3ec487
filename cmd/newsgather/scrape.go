package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pevans/newsgather/pipeline"
	"github.com/pevans/newsgather/relevance"
)

func newScrapeCommand() *cobra.Command {
	var (
		rawURL     string
		topicName  string
		keywords   string
		region     string
		sourceType string
		name       string
		selected   bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run the strategy chain once for a feed or site URL",
		Long: `Run the feed, feed discovery and HTML strategies against one URL and print
the result as JSON. Nothing is stored.

The topic is either a configured one (--topic), an ad-hoc keyword topic
(--keywords) or an ad-hoc regional topic (--region on its own).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rawURL == "" {
				return fmt.Errorf("--url is required")
			}
			st, err := relevance.ParseSourceType(sourceType)
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var topic relevance.TopicConfig
			switch {
			case topicName != "":
				t, ok := a.Config.Topics.Lookup(topicName)
				if !ok {
					return fmt.Errorf("unknown topic %q", topicName)
				}
				topic = t
			case keywords != "":
				topic = relevance.TopicConfig{
					Name:      "adhoc",
					TopicType: relevance.TopicKeyword,
					Keywords:  splitList(keywords),
				}
			case region != "":
				topic = relevance.TopicConfig{
					Name:      strings.ToLower(region),
					TopicType: relevance.TopicRegional,
					Region:    region,
				}
			default:
				return fmt.Errorf("one of --topic, --keywords or --region is required")
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			result := a.Orchestrator.Run(ctx, pipeline.Request{
				FeedURL:   rawURL,
				Topic:     topic,
				Region:    region,
				Competing: a.Config.Topics.Competing(topic),
				Source: pipeline.SourceInfo{
					Name:         name,
					SourceType:   st,
					FeedURL:      rawURL,
					UserSelected: selected,
				},
			})
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	f := cmd.Flags()
	f.StringVar(&rawURL, "url", "", "feed or site URL")
	f.StringVar(&topicName, "topic", "", "configured topic name")
	f.StringVar(&keywords, "keywords", "", "comma-separated keywords for an ad-hoc topic")
	f.StringVar(&region, "region", "", "region of the source")
	f.StringVar(&sourceType, "type", string(relevance.SourceRegional), "hyperlocal, regional or national")
	f.StringVar(&name, "name", "", "source display name")
	f.BoolVar(&selected, "selected", false, "treat the source as chosen by the user")
	return cmd
}

func newExtractCommand() *cobra.Command {
	var (
		rawURL string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the article from one page",
		Long: `Fetch a page (or read it from --file) and print the extracted document as
JSON. --url is still needed with --file to pick the site profile and resolve
links.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rawURL == "" {
				return fmt.Errorf("--url is required")
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var html string
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				html = string(data)
			} else {
				ctx, cancel := signalContext(cmd.Context())
				defer cancel()

				html, err = a.Fetcher().Fetch(ctx, rawURL, a.Config.Fetcher.MaxRetries)
				if err != nil {
					return err
				}
			}

			return printJSON(cmd.OutOrStdout(), a.Extractor.Extract(html, rawURL))
		},
	}

	cmd.Flags().StringVar(&rawURL, "url", "", "page URL")
	cmd.Flags().StringVar(&file, "file", "", "read the page from a local HTML file")
	return cmd
}
