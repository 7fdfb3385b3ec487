package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pevans/newsgather/outbox"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run [source-id]",
		Short: "Run due sources once, or one source now",
		Long: `Without an argument, run every enabled source whose polling interval has
elapsed, exactly as one daemon tick would. With a source ID, run that source
immediately whether or not it is due. Results land in the outbox.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			start := time.Now()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				before := time.Now()
				if err := a.Runner.RunDue(ctx); err != nil {
					return err
				}
				listed, err := a.Outbox.List()
				if err != nil {
					return err
				}
				var produced []*outbox.Batch
				for i := range listed.Batches {
					if !listed.Batches[i].CreatedAt.Before(before) {
						produced = append(produced, &listed.Batches[i])
					}
				}
				if len(produced) == 0 {
					fmt.Fprintln(out, "No sources are due.")
					return nil
				}
				printRunSummary(out, produced, time.Since(start))
				return nil
			}

			id, err := parseID("source", args[0])
			if err != nil {
				return err
			}
			batches, err := a.Runner.SyncSource(ctx, id)
			if err != nil {
				return err
			}
			printRunSummary(out, batches, time.Since(start))
			return nil
		},
	}
}
