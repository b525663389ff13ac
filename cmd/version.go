package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/statickit/internal/version"
)

func newVersionCmd() *cobra.Command {
	var (
		format string
		short  bool
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the statickit version, git commit, build time, Go version and
target platform.

Examples:
  statickit version
  statickit version --short
  statickit version --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				return printJSON(out, info)
			case "text":
				if short {
					_, err := fmt.Fprintln(out, info.Short())

					return err
				}
				_, err := fmt.Fprintln(out, info.String())

				return err
			default:
				return fmt.Errorf("unsupported format: %s (supported: text, json)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json)")
	cmd.Flags().BoolVar(&short, "short", false, "show the short version only")

	return cmd
}
