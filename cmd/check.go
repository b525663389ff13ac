package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/statickit/internal/compiler"
	"github.com/conneroisu/statickit/internal/config"
	kiterrors "github.com/conneroisu/statickit/internal/errors"
	"github.com/conneroisu/statickit/internal/loader"
	"github.com/conneroisu/statickit/pkg/block"
	"github.com/conneroisu/statickit/pkg/page"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate block templates and page configs",
		Long: `Compile every block template, load and validate every page config, and
check each page against its base template and the block registry.

Every problem is reported, not just the first. The command fails when any
problem is found.`,
		Args: cobra.NoArgs,
		RunE: a.runCheck,
	}
}

// checkReport counts what a check looked at.
type checkReport struct {
	blocks int
	pages  int
}

func (a *app) runCheck(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := a.load(cmd)
	if err != nil {
		return err
	}

	collector := kiterrors.NewErrorCollector()
	report := checkProject(cmd.Context(), cfg, collector)
	logger.Debug(cmd.Context(), "check finished", "blocks", report.blocks, "pages", report.pages, "problems", collector.Count())

	out := cmd.OutOrStdout()
	if collector.HasErrors() {
		fmt.Fprint(out, collector.Summary())

		return kiterrors.NewValidationError(kiterrors.ErrCodePageInvalid,
			fmt.Sprintf("check found %d problem(s)", collector.Count()))
	}
	fmt.Fprintf(out, "ok: %d block template(s), %d page(s)\n", report.blocks, report.pages)

	return nil
}

func checkProject(ctx context.Context, cfg *config.Config, collector *kiterrors.ErrorCollector) checkReport {
	var report checkReport

	reg := block.NewRegistry()
	programs, err := compiler.ParseDir(ctx, cfg.BlocksDir)
	collector.AddError(err)
	for _, def := range compiler.Definitions(programs) {
		collector.AddError(reg.Register(def))
	}
	report.blocks = reg.Count()

	pages, err := loader.LoadDir(ctx, cfg.PagesDir)
	collector.AddError(err)
	report.pages = len(pages)

	src := templateSource(cfg)
	for _, p := range pages {
		checkPage(ctx, p, src, reg, collector)
	}

	return report
}

// checkPage reports unknown block types and regions the base template
// does not declare.
func checkPage(ctx context.Context, p page.Config, src page.TemplateSource, reg *block.Registry, collector *kiterrors.ErrorCollector) {
	fail := func(msg string) {
		collector.AddError(kiterrors.NewValidationError(kiterrors.ErrCodePageInvalid,
			fmt.Sprintf("page %q: %s", p.ID, msg)).WithLocation(p.Source, 0, 0))
	}

	for _, region := range p.RegionNames() {
		for _, inst := range p.Regions[region].Blocks {
			def, ok := reg.Get(inst.Type)
			if !ok {
				fail(fmt.Sprintf("block %q in region %q has unknown type %q", inst.ID, region, inst.Type))

				continue
			}
			if _, issues := def.Validate(inst.Props); len(issues) > 0 {
				fail(fmt.Sprintf("block %q has invalid props: %s", inst.ID, issues.Error()))
			}
		}
	}

	tmpl, err := src.Template(ctx, p.Template)
	if err != nil {
		fail(err.Error())

		return
	}
	declared, err := page.TemplateRegions(tmpl)
	if err != nil {
		fail(err.Error())

		return
	}
	known := make(map[string]bool, len(declared))
	for _, name := range declared {
		known[name] = true
	}
	for _, region := range p.RegionNames() {
		if !known[region] {
			fail(fmt.Sprintf("region %q is not declared by template %q", region, p.Template))
		}
	}
}
