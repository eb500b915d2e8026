package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tawjihi/mathbot/internal/config"
	"github.com/tawjihi/mathbot/internal/content"
	"github.com/tawjihi/mathbot/internal/daily"
	"github.com/tawjihi/mathbot/internal/llm"
	"github.com/tawjihi/mathbot/internal/store"
	"github.com/tawjihi/mathbot/internal/telegram"
	"github.com/tawjihi/mathbot/internal/ui/theme"
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Publish today's question",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return runPost(cmd, dryRun)
	},
}

func init() {
	postCmd.Flags().Bool("dry-run", false, "Print the post instead of publishing it; the store is not modified")
}

// runPost builds the dependencies of a daily run and executes it.
func runPost(cmd *cobra.Command, dryRun bool) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("invalid configuration")
		return &loggedError{err: err}
	}

	// The ledger is observability only; a run proceeds without it.
	var events store.EventRepo
	if cfg.Store.EventsDB != "" {
		ledger, err := openLedger(cfg)
		if err != nil {
			log.WithError(err).Warn("event ledger unavailable, continuing without it")
		} else {
			defer ledger.Close()
			events = ledger.EventRepo()
		}
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM, events, log)
	if err != nil {
		err = &config.ConfigurationError{Err: err}
		log.WithError(err).Error("LLM provider not available")
		return &loggedError{err: err}
	}
	log.WithFields(logrus.Fields{
		"provider": cfg.LLM.Provider,
		"model":    provider.ModelID(),
	}).Debug("LLM provider ready")

	runner := daily.New(cfg, daily.Deps{
		Questions: store.QuestionFile{Path: cfg.Store.Path},
		Solutions: content.NewSolutionGenerator(provider, cfg.Content),
		Tips:      content.NewTipGenerator(provider, cfg.Content),
		Variants:  content.NewVariantGenerator(provider, cfg.Content),
		Publisher: telegram.New(cfg.Telegram),
		Events:    events,
	}, daily.WithLogger(log), daily.DryRun(dryRun))

	res, err := runner.Run(ctx)
	if err != nil {
		return &loggedError{err: err}
	}

	if res.DryRun {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, theme.Title.Render(fmt.Sprintf("Dry run: question %d", res.QuestionID)))
		if res.Variant {
			fmt.Fprintln(out, theme.Warning.Render("Variant generated because every question is used (not saved)."))
		}
		fmt.Fprintln(out, theme.Card.Render(res.Post))
	}
	return nil
}
