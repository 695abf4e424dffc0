package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alideal-affiliate-relay/config"
	"alideal-affiliate-relay/internal/logs"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "relay",
		Short:         "Convert affiliate links and relay deal posts from the command line",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errUsage
		},
	}

	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newScanCmd())

	return rootCmd
}

// bootstrap loads configuration from the environment and builds the logger,
// same as the services do at startup.
func bootstrap() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.NewConfig(config.NewViper())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logs.NewLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	return cfg, logs.NewSugaredLogger(logger), nil
}
