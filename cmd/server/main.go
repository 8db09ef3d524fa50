package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"landrec/internal/platform/config"
)

var version = "dev"

type rootOptions struct {
	configPath string
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configPath)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "landrec",
		Short:         "Land registration back office",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file (LANDREC_* env vars override it)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newCatalogCommand(opts))
	cmd.AddCommand(newConsumeCommand(opts))
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "landrec:", err)
		os.Exit(1)
	}
}
