package main

import (
	"github.com/raushankrgupta/fitly-outfits/config"
	"github.com/raushankrgupta/fitly-outfits/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// commandContext carries what every subcommand shares.
type commandContext struct {
	verbose bool
	logger  *zap.Logger
}

func (c *commandContext) ensureLogger() (*zap.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	env := config.Env
	if c.verbose {
		env = "dev"
	}
	logger, err := utils.NewLogger(env)
	if err != nil {
		return nil, err
	}
	if !c.verbose {
		logger = logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
	}
	c.logger = logger
	return logger, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "fitly",
		Short:         "Fitly outfit generation CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadConfig()
			_, err := ctx.ensureLogger()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newDescribeCommand(ctx))
	rootCmd.AddCommand(newFindImageCommand(ctx))

	return rootCmd
}
