package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Berylsoft/Zeon/pkg/binlog"
	"github.com/Berylsoft/Zeon/pkg/types"
)

func newAppendCmd() *cobra.Command {
	appendCmd := &cobra.Command{
		Use:   "append -f <commit.yaml>",
		Short: "Append a commit described by a YAML document",
		Long: `Append a commit described by a YAML document. Use -f - to read
the document from stdin.

Example document:
  operator: "0001:2a"
  seq: 0
  revs:
    - object: "0100:1"
      trait: std:meta:name
      kind: mut
      value: widget

Example:
  zeon append -f commit.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			path, _ := cmd.Flags().GetString("file")

			var data []byte
			var err error
			if path == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(path)
			}
			if err != nil {
				return fmt.Errorf("failed to read commit document: %w", err)
			}

			c, err := parseCommitDoc(data, types.Now)
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			item, err := s.Append(cmd.Context(), c)
			if err != nil {
				return fmt.Errorf("failed to append commit: %w", err)
			}
			cid, err := binlog.FormatHash(item.Hash)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "commit %s\n", item.Ptr)
			fmt.Fprintf(out, "hash   %s\n", item.Hash)
			fmt.Fprintf(out, "cid    %s\n", cid)
			fmt.Fprintf(out, "len    %d\n", item.Len)
			return nil
		},
	}
	appendCmd.Flags().StringP("file", "f", "", "Commit document, - for stdin")
	if err := appendCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
	return appendCmd
}
