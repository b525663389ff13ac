package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/statickit/internal/compiler"
)

type genOptions struct {
	module string
	json   bool
}

func newGenCmd(a *app) *cobra.Command {
	var o genOptions
	cmd := &cobra.Command{
		Use:   "gen [dir]",
		Short: "Compile block templates to Go render functions",
		Long: `Compile every *.block.html file, and every template.html inside a block
directory, into a Go file exposing Render<Name>(block.Input) string.

Files are only rewritten when their content changes.

Examples:
  statickit gen                       # blocks/ -> gen/
  statickit gen ui --out internal/ui  # custom source and output
  statickit gen --package blocks      # custom package clause`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGen(cmd, args, o)
		},
	}

	f := cmd.Flags()
	f.StringP("out", "o", "", "output directory for generated files")
	f.String("package", "", "package name of the generated files")
	f.String("import", "", "import path of the block runtime")
	f.StringVar(&o.module, "module", "", "module path used when formatting imports")
	f.BoolVar(&o.json, "json", false, "print the manifest as JSON")

	return cmd
}

func (a *app) runGen(cmd *cobra.Command, args []string, o genOptions) error {
	if err := a.bind(cmd, map[string]string{
		"gen_dir":        "out",
		"gen_package":    "package",
		"runtime_import": "import",
	}); err != nil {
		return err
	}
	cfg, logger, err := a.load(cmd)
	if err != nil {
		return err
	}
	src := cfg.BlocksDir
	if len(args) == 1 {
		src = args[0]
	}

	manifest, err := compiler.CompileDir(cmd.Context(), src, cfg.GenDir,
		compiler.WithPackage(cfg.GenPackage),
		compiler.WithImportPath(cfg.RuntimeImport),
		compiler.WithModulePath(o.module),
	)
	if manifest == nil {
		return err
	}

	out := cmd.OutOrStdout()
	if o.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(manifest); encErr != nil {
			return encErr
		}

		return err
	}

	written := 0
	for _, e := range manifest.Entries {
		status := "unchanged"
		if e.Changed {
			status = "wrote"
			written++
		}
		fmt.Fprintf(out, "%-9s %s (%s)\n", status, e.Output, e.Func)
	}
	fmt.Fprintf(out, "%d block(s), %d written\n", len(manifest.Entries), written)
	logger.Debug(cmd.Context(), "generated blocks", "src", src, "out", cfg.GenDir)

	return err
}
