package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newResultsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect and acknowledge outbox batches",
	}
	cmd.AddCommand(
		newResultsListCommand(),
		newResultsShowCommand(),
		newResultsAckCommand(),
	)
	return cmd
}

func newResultsListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List batches waiting in the outbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			listed, err := a.Outbox.List()
			if err != nil {
				return err
			}
			for _, e := range listed.Errors {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", &e)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), listed.Batches)
			}
			printBatchesTable(cmd.OutOrStdout(), listed.Batches)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newResultsShowCommand() *cobra.Command {
	var resultOnly bool

	cmd := &cobra.Command{
		Use:   "show <batch-id>",
		Short: "Print a batch as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("batch", args[0])
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			batch, err := a.Outbox.Get(id)
			if err != nil {
				return err
			}
			if resultOnly {
				return printJSON(cmd.OutOrStdout(), batch.Result)
			}
			return printJSON(cmd.OutOrStdout(), batch)
		},
	}
	cmd.Flags().BoolVar(&resultOnly, "result", false, "print only the scraping result")
	return cmd
}

func newResultsAckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ack <batch-id>...",
		Short: "Remove handled batches from the outbox",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			for _, arg := range args {
				id, err := parseID("batch", arg)
				if err != nil {
					return err
				}
				if err := a.Outbox.Delete(id); err != nil {
					return fmt.Errorf("failed to acknowledge %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Acknowledged batch: %s\n", id)
			}
			return nil
		},
	}
}
