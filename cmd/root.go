package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tawjihi/mathbot/internal/config"
	"github.com/tawjihi/mathbot/internal/daily"
	"github.com/tawjihi/mathbot/internal/logging"
	"github.com/tawjihi/mathbot/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mathbot",
	Short: "Daily math question poster for Telegram",
	Long: "mathbot posts one math question per run to a Telegram channel, with an\n" +
		"AI-generated step-by-step Arabic solution and a short study tip.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPost(cmd, false)
	},
}

// loggedError marks an error the daily run already wrote to the log.
type loggedError struct{ err error }

func (e *loggedError) Error() string { return e.err.Error() }
func (e *loggedError) Unwrap() error { return e.err }

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return daily.ExitOK
	}
	var logged *loggedError
	if !errors.As(err, &logged) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return daily.ExitCode(err)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a YAML config file")
	pf.String("store", "data/questions.json", "Path to the question store (overrides MATHBOT_STORE)")
	pf.String("events-db", "data/events.db", "Path to the SQLite event ledger, empty to disable (overrides MATHBOT_EVENTS_DB)")
	pf.String("log-file", "logs/bot.log", "Log file, empty for console only (overrides MATHBOT_LOG_FILE)")
	pf.String("log-level", "info", "Log level (overrides MATHBOT_LOG_LEVEL)")
	pf.String("provider", "", "LLM provider: gemini, openai, anthropic, openrouter or mock (overrides MATHBOT_LLM_PROVIDER)")
	pf.String("chat-id", "", "Telegram chat id (overrides TELEGRAM_CHAT_ID)")

	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration for cmd without validating it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path, cmd.Flags())
}

// newLogger builds the process logger from cfg.
func newLogger(cfg config.Config) (*logrus.Logger, io.Closer, error) {
	log, closer, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, nil, &config.ConfigurationError{Err: err}
	}
	return log, closer, nil
}

// openLedger opens the event ledger named in cfg.
func openLedger(cfg config.Config) (*store.Store, error) {
	if cfg.Store.EventsDB == "" {
		return nil, errors.New("event ledger is disabled (store.events_db is empty)")
	}
	if err := store.EnsureDir(cfg.Store.EventsDB); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	return store.Open(cfg.Store.EventsDB)
}
