package cli

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"locamark/internal/config"
	"locamark/internal/logger"
)

// session carries what the subcommands share for one invocation.
type session struct {
	cfg  *config.Config
	logs io.WriteCloser
}

// RootCommand builds the locamark command tree over cfg. Flags override the
// values cfg was loaded with.
func RootCommand(cfg *config.Config) *cobra.Command {
	s := &session{cfg: cfg}

	rootCmd := &cobra.Command{
		Use:          "locamark",
		Short:        "Locamark location bookmarks",
		SilenceUsage: true,
	}

	setupFlags(rootCmd, cfg)

	hashCmd := hashPassphraseCommand()
	rootCmd.AddCommand(
		serveCommand(s),
		exportCommand(s),
		importCommand(s),
		hashCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Hashing a passphrase needs neither logs nor a database
		if cmd.Name() == hashCmd.Name() {
			return nil
		}
		s.logs = logger.Setup(cfg.LogFile, cfg.LogLevel)
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if s.logs == nil {
			return nil
		}
		logrus.SetOutput(os.Stderr)
		return s.logs.Close()
	}

	return rootCmd
}

func setupFlags(rootCmd *cobra.Command, cfg *config.Config) {
	rootCmd.PersistentFlags().StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Path to the rotating log file")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "Database driver: sqlite or postgres")
	rootCmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database file")
}
