package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Berylsoft/Zeon/pkg/binlog"
	"github.com/Berylsoft/Zeon/pkg/meta"
	"github.com/Berylsoft/Zeon/pkg/std"
	"github.com/Berylsoft/Zeon/pkg/types"
)

func newShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show (--ptr <ts/opr/seq> | --hash <hex|cid>)",
		Short: "Show one commit by key or by content hash",
		Long: `Show one commit by key or by content hash.

Examples:
  zeon show --ptr 2024-05-01T12:00:00Z/0001:000000000000002a/0
  zeon show --hash bafkr...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ptrArg, _ := cmd.Flags().GetString("ptr")
			hashArg, _ := cmd.Flags().GetString("hash")
			if (ptrArg == "") == (hashArg == "") {
				return errors.New("exactly one of --ptr and --hash is required")
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			var c meta.Commit
			var h meta.Hash
			if ptrArg != "" {
				ptr, err := meta.ParseCommitPtr(ptrArg)
				if err != nil {
					return err
				}
				if c, h, err = s.Get(ptr); err != nil {
					return err
				}
			} else {
				if h, err = binlog.ParseHash(hashArg); err != nil {
					return err
				}
				if c, err = s.GetByHash(h); err != nil {
					return err
				}
			}
			return printCommit(cmd.OutOrStdout(), c, h)
		},
	}
	showCmd.Flags().String("ptr", "", "Commit key as ts/opr/seq")
	showCmd.Flags().String("hash", "", "Content hash as hex or CID")
	return showCmd
}

func printCommit(out io.Writer, c meta.Commit, h meta.Hash) error {
	cid, err := binlog.FormatHash(h)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "commit    %s\n", c.Ptr)
	fmt.Fprintf(out, "time      %s\n", c.Ptr.TS.Time())
	fmt.Fprintf(out, "operator  %s\n", c.Ptr.Opr)
	fmt.Fprintf(out, "hash      %s\n", h)
	fmt.Fprintf(out, "cid       %s\n", cid)
	for _, e := range c.Revs {
		fmt.Fprintf(out, "  %s %s[%d] %s", e.Ptr.Object, std.Describe(e.Ptr.TraitType), e.Ptr.Attr, e.Rev.Kind)
		if e.Rev.Value != nil {
			fmt.Fprintf(out, " %s", types.Format(e.Rev.Value))
		}
		for _, v := range e.Rev.Values {
			fmt.Fprintf(out, " %s", types.Format(v))
		}
		fmt.Fprintln(out)
	}
	return nil
}
