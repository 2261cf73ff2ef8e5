package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Berylsoft/Zeon/pkg/binlog"
	"github.com/Berylsoft/Zeon/pkg/meta"
	"github.com/Berylsoft/Zeon/pkg/types"
)

func newLogCmd() *cobra.Command {
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "List every commit in log order",
		Long: `List every commit in log order with its content hash.

Examples:
  zeon log
  zeon log --cid --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			verbose, _ := cmd.Flags().GetBool("verbose")
			useCID, _ := cmd.Flags().GetBool("cid")

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			return s.Replay(cmd.Context(), func(c meta.Commit, h meta.Hash) error {
				id := h.String()
				if useCID {
					if id, err = binlog.FormatHash(h); err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "%s  %s  %d revs\n", c.Ptr, id, len(c.Revs))
				if verbose {
					fmt.Fprintf(out, "    %s\n", types.Format(c.Serialize()))
				}
				return nil
			})
		},
	}
	logCmd.Flags().BoolP("verbose", "v", false, "Print each commit value")
	logCmd.Flags().Bool("cid", false, "Print hashes as CIDs")
	return logCmd
}
