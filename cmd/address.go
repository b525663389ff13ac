package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/internal/loader"
	"github.com/conneroisu/statickit/pkg/address"
)

func newAddressCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Encode, decode and resolve schema addresses",
		Long: `A schema address names a block instance, or a value inside its props:

  pageId::region::blockId[::propPath]

Examples:
  statickit address encode home main hero-1 items[0].title
  statickit address decode home::main::hero-1::title
  statickit address resolve home::main::hero-1::items[0]`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "encode <page> <region> <block> [prop-path]",
			Short: "Print the encoded address",
			Args:  cobra.RangeArgs(3, 4),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr := address.New(args[0], args[1], args[2])
				if len(args) == 4 {
					addr = address.WithPropPath(addr, args[3])
				}
				if err := address.Validate(addr); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), address.Encode(addr))

				return err
			},
		},
		&cobra.Command{
			Use:   "decode <address>",
			Short: "Print the address fields as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := address.Decode(args[0])
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), addr)
			},
		},
		&cobra.Command{
			Use:   "resolve <address>",
			Short: "Print the props value an address points at",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runResolve,
		},
	)

	return cmd
}

func (a *app) runResolve(cmd *cobra.Command, args []string) error {
	addr, err := address.Decode(args[0])
	if err != nil {
		return err
	}
	cfg, logger, err := a.load(cmd)
	if err != nil {
		return err
	}

	pages, loadErr := loader.LoadDir(cmd.Context(), cfg.PagesDir)
	p, ok := loader.Lookup(pages, addr.PageID)
	if !ok {
		if loadErr != nil {
			return loadErr
		}

		return notFound(addr.PageID, cfg.PagesDir)
	}
	if loadErr != nil {
		logger.Warn(cmd.Context(), loadErr, "some page configs failed to load")
	}

	inst, ok := p.Find(addr.Region, addr.BlockID)
	if !ok {
		return kiterrors.NewLookupError(kiterrors.ErrCodeInvalidAddress,
			fmt.Sprintf("page %q has no block %q in region %q", p.ID, addr.BlockID, addr.Region))
	}
	v, err := address.Resolve(inst.Props, addr)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), v)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
