package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/portfolio/config"
)

type rootFlags struct {
	configFile string
	envFile    string
}

func (f *rootFlags) loaderOptions() []config.LoaderOption {
	var opts []config.LoaderOption
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	if f.envFile != "" {
		opts = append(opts, config.WithEnvFile(f.envFile))
	}
	return opts
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "portfolio",
		Short: "Image portfolio backend",
		Long: `Serves the public portfolio listing and the admin API for uploading
and deleting images. Without a subcommand it runs the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "path to config.yml")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "path to a .env file")

	root.AddCommand(
		newServeCmd(flags),
		newMigrateCmd(flags),
		newHashPasswordCmd(),
		newVersionCmd(),
	)
	return root
}
