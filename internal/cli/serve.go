package cli

import (
	"github.com/spf13/cobra"

	"github.com/david-delgrosso/django-er-diagram/internal/server"
)

func (a *app) newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve generated pages from the output store",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}

	flags := cmd.Flags()
	flags.String("addr", server.DefaultAddr, "listen address")
	flags.String("output-directory", "docs", "directory inside each module holding its page")
	flags.String("project-root", ".", "project root the local store reads from")
	flags.String("store", "local", "output store: local or minio")
	a.mustBind(cmd, "serve.addr", "addr")

	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	// generate-diagrams binds the same keys; rebind to this command's flags.
	for key, flag := range map[string]string{
		"output_directory": "output-directory",
		"project_root":     "project-root",
		"store.kind":       "store",
	} {
		if err := a.bind(cmd, key, flag); err != nil {
			return err
		}
	}

	cfg, log, err := a.load(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return server.New(store, cfg.OutputDirectory, log).ListenAndServe(cmd.Context(), cfg.Serve.Addr)
}
