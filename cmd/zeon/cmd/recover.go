package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Truncate the log to its last valid commit",
		Long: `Check the log and truncate both files to the longest prefix of
records that verify. Opening the log for any command does the same; this
command reports what was found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			res := s.Recovery()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Records validated: %d\n", res.RecordsValidated)
			fmt.Fprintf(out, "Index file:   %d -> %d bytes\n", res.IndexSizeBefore, res.IndexSizeAfter)
			fmt.Fprintf(out, "Content file: %d -> %d bytes\n", res.ContentSizeBefore, res.ContentSizeAfter)
			if res.Cause != nil {
				fmt.Fprintf(out, "Stopped at:   %v\n", res.Cause)
			}
			if res.Truncated() {
				fmt.Fprintln(out, "Log truncated")
			} else {
				fmt.Fprintln(out, "Log is clean")
			}
			return nil
		},
	}
}
