package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go2tv.app/tizenbridge/internal/buildinfo"
	"go2tv.app/tizenbridge/internal/config"
	"go2tv.app/tizenbridge/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           buildinfo.Name,
		Short:         "Drive a media renderer through the TV video adapter",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv(config.EnvPrefix+"CONFIG"), "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newSelfTestCmd(opts),
		newRenderersCmd(opts),
		newVersionCmd(),
	)
	return root
}

// load reads the config and applies it to the global logger.
func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.NewLoader(o.configPath).Load()
	if err != nil {
		return cfg, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	log.Configure(log.Config{Level: cfg.LogLevel})
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Version)
		},
	}
}
