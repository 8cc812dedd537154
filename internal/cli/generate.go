package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/david-delgrosso/django-er-diagram/internal/generate"
)

func (a *app) newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate-diagrams",
		Short: "Generate an ER diagram page for every module",
		Long: `Generate one Mermaid ER diagram per module under the project root.

Pages are written to <module>/<output-directory>/erd.md or erd.html; HTML
runs also write erd_index.html at the project root.`,
		Example: `  erdiagram generate-diagrams
  erdiagram generate-diagrams --only library --output md
  erdiagram generate-diagrams --provider catalog --store minio`,
		Args: cobra.NoArgs,
		RunE: a.runGenerate,
	}

	flags := cmd.Flags()
	flags.StringSlice("only", nil, "only generate these modules (name or label)")
	flags.StringSlice("ignore", nil, "skip these modules (name or label)")
	flags.String("output", "html", "output format: md or html")
	flags.String("output-directory", "docs", "directory created inside each module for its page")
	flags.String("project-root", ".", "project root; modules outside it are skipped")
	flags.String("project-name", "", "index title (default: title cased project root name)")
	flags.String("manifest", "", "manifest file (default <project-root>/erd_manifest.yaml)")
	flags.String("provider", "manifest", "metadata provider: manifest or catalog")
	flags.String("store", "local", "output store: local or minio")

	for key, flag := range map[string]string{
		"only":              "only",
		"ignore":            "ignore",
		"output":            "output",
		"output_directory":  "output-directory",
		"project_root":      "project-root",
		"project_name":      "project-name",
		"provider.manifest": "manifest",
		"provider.kind":     "provider",
		"store.kind":        "store",
	} {
		a.mustBind(cmd, key, flag)
	}

	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := a.load(cmd)
	if err != nil {
		return err
	}

	// Reject bad options before connecting to anything.
	opts := cfg.GenerateOptions()
	if err := opts.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()

	provider, err := openProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	res, runErr := generate.NewRunner(provider, store, log).Run(ctx, opts)
	if res != nil {
		printSummary(cmd, res)
	}
	return runErr
}

func printSummary(cmd *cobra.Command, res *generate.Result) {
	successColor := color.New(color.FgGreen, color.Bold)
	warningColor := color.New(color.FgYellow)
	infoColor := color.New(color.FgCyan)
	out := cmd.OutOrStdout()

	for _, p := range res.Pages {
		successColor.Fprintln(out, generate.SuccessMessage(p.Module))
	}
	if n := len(res.Warnings); n > 0 {
		warningColor.Fprintf(out, "%d field(s) could not be fully represented, see log\n", n)
	}
	if res.Index != "" {
		infoColor.Fprintf(out, "Index written to %s\n", res.Index)
	}
}
