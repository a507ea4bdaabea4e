// Package cli is the command-line entry point: one-shot queries, an
// interactive session, the HTTP server and knowledge base checks.
package cli

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/Chative-Support-Router/pkg/config"
	logx "github.com/tanpawarit/Chative-Support-Router/pkg/logger"
)

func RootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "support-router",
		Short:         "NovaCRM support query router",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configx.SetEnvFile(envFile)
			initLogger(cmd.Name() != "serve")
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (default ./.env when present)")

	root.AddCommand(
		AskCmd(),
		ChatCmd(),
		ServeCmd(),
		IndexCmd(),
	)
	return root
}

func Execute() {
	if err := RootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command_failed")
		os.Exit(1)
	}
}

// initLogger reloads LOG_* after the env file is known. Interactive commands
// log to stderr so answers on stdout stay clean.
func initLogger(stderr bool) {
	cfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		cfg = &logx.Config{}
	}
	cfg.Stderr = cfg.Stderr || stderr
	logx.Init(*cfg)
}
