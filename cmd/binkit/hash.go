package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/binkit"
)

func newHashCmd(a *app) *cobra.Command {
	var verify string
	cmd := &cobra.Command{
		Use:   "hash FILE...",
		Short: "Print content digests",
		Long: `Print the digest of each file as "algorithm:hex  path".

With --verify, the single FILE is checked against the given digest instead
and the command fails on mismatch.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := fileRefs(args)
			if err != nil {
				return err
			}
			if verify != "" {
				if len(refs) != 1 {
					return fmt.Errorf("%w: --verify takes exactly one file", binkit.ErrInvalidInput)
				}
				want, err := binkit.ParseDigest(verify)
				if err != nil {
					return err
				}
				if err := a.toolkit.Verify(cmd.Context(), refs[0], want); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s: OK\n", refs[0].Name())
				return nil
			}
			for _, ref := range refs {
				d, err := a.toolkit.Hash(cmd.Context(), ref)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s  %s\n", d, ref.Name())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&verify, "verify", "", "expected digest (algorithm:hex or bare sha256 hex)")
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare A B",
		Short: "Report whether two files have identical content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := fileRefs(args)
			if err != nil {
				return err
			}
			cmp, err := a.toolkit.Compare(cmd.Context(), refs[0], refs[1])
			if err != nil {
				return err
			}
			switch {
			case cmp.Identical:
				fmt.Fprintf(a.stdout, "identical %s\n", cmp.DigestA)
			case cmp.SizeMismatch:
				fmt.Fprintln(a.stdout, "different (size)")
			default:
				fmt.Fprintf(a.stdout, "different %s %s\n", cmp.DigestA, cmp.DigestB)
			}
			return nil
		},
	}
}
