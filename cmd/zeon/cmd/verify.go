package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Reread every record and check its hash and key",
		Long: `Reread both files from disk and check every record against its
content hash and key. Exits non-zero at the first record that fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.Verify(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "verified %d commits\n", res.RecordsVerified)
			if res.Err != nil {
				return fmt.Errorf("verification failed after %d commits: %w", res.RecordsVerified, res.Err)
			}
			return nil
		},
	}
}
