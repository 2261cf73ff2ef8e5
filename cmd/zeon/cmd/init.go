package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Berylsoft/Zeon/pkg/config"
)

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file and an empty commit log",
		Long: `Create a config file and an empty commit log.

This command will:
- Write a default config file unless one exists (use --force to overwrite)
- Create the data directory
- Create the index and content files with their magic numbers

Examples:
  zeon init --data-dir=./data
  zeon init --config=./zeon.yaml --data-dir=/var/lib/zeon --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			force, _ := cmd.Flags().GetBool("force")
			out := cmd.OutOrStdout()

			if config.ConfigExists(a.configPath) && !force {
				fmt.Fprintf(out, "Config already exists: %s\n", a.configPath)
			} else {
				if err := config.SaveConfig(a.cfg, a.configPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote config: %s\n", a.configPath)
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Index file:   %s\n", a.cfg.IndexPath())
			fmt.Fprintf(out, "Content file: %s\n", a.cfg.ContentPath())
			fmt.Fprintf(out, "Commits:      %d\n", stats.Commits)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	return initCmd
}
