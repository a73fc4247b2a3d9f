package main

import (
	"github.com/spf13/cobra"

	"github.com/ManuelReschke/StreamFox/internal/pkg/env"
	"github.com/ManuelReschke/StreamFox/internal/pkg/logger"
)

func newRootCommand() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "streamfox",
		Short:         "StreamFox video streaming server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			env.SetupEnvFile()
			level := logLevel
			if level == "" {
				level = env.GetEnv("LOG_LEVEL", "info")
			}
			logger.Setup(level, env.IsDev())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to LOG_LEVEL")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newUserCommand())

	return rootCmd
}
