package commands

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"motodash/internal/config"
	"motodash/internal/logging"
)

var (
	cfg *config.AppConfig
	log *logrus.Logger

	port     string
	logLevel string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "motodash",
		Short:         "Admin dashboard backend for the motorcycle lending API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration from environment variables (.env auto-loaded if present)
			cfg = config.Load()
			if port != "" {
				cfg.Port = port
			}

			log = logging.New(os.Stdout, cfg.Location())
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			logging.SetDefault(log)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd(), migrateCmd())
	return root
}

func Execute() error {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if log != nil {
			log.WithField("error", err.Error()).Error("command failed")
		} else {
			root.PrintErrln("Error:", err)
		}
		return err
	}
	return nil
}
