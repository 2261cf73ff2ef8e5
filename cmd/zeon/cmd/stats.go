package cmd

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Commits:      %d\n", stats.Commits)
			fmt.Fprintf(out, "Index size:   %d bytes\n", stats.IndexSize)
			fmt.Fprintf(out, "Content size: %d bytes\n", stats.ContentSize)
			if stats.Commits > 0 {
				fmt.Fprintf(out, "Last hash:    %s\n", stats.LastHash)
			}
			if c := stats.Catalog; c != nil {
				fmt.Fprintf(out, "Catalog:      %d commits\n", c.Commits)
				if c.Build != ksuid.Nil {
					fmt.Fprintf(out, "Catalog build: %s (%s)\n", c.Build, c.Build.Time().UTC())
				}
			} else {
				fmt.Fprintln(out, "Catalog:      disabled")
			}
			return nil
		},
	}
}
