package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Berylsoft/Zeon/pkg/types"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <type:id>",
		Short: "List the commits that touched an object",
		Long: `List the commits that touched an object, by commit key. Needs the
catalog to be enabled.

Example:
  zeon history 0100:1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			obj, err := types.ParseObjectPtr(args[0])
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.History(cmd.Context(), obj)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s\n", e.Commit, e.Hash)
			}
			if len(entries) == 0 {
				fmt.Fprintf(out, "no commits for %s\n", obj)
			}
			return nil
		},
	}
}
