package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thywilljoshua/deckgen/internal/ai"
	"github.com/thywilljoshua/deckgen/internal/apperr"
	"github.com/thywilljoshua/deckgen/internal/config"
	"github.com/thywilljoshua/deckgen/internal/export"
	"github.com/thywilljoshua/deckgen/internal/logging"
	"github.com/thywilljoshua/deckgen/internal/metrics"
	"github.com/thywilljoshua/deckgen/internal/session"
)

// app carries what every subcommand shares once config is loaded.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Recorder
}

func (a *app) orchestrator(ctx context.Context) (*session.Orchestrator, error) {
	g, err := ai.NewGemini(ctx, a.cfg.Gemini.APIKey, a.cfg.Gemini.TextModel, a.cfg.Gemini.ImageModel, a.log)
	if err != nil {
		return nil, err
	}
	return session.New(g, session.Options{
		CallTimeout:      a.cfg.Timeouts.Call,
		ImageConcurrency: a.cfg.Images.Concurrency,
		Metrics:          a.metrics,
		Logger:           a.log,
	}), nil
}

func (a *app) exporter() *export.Exporter { return export.NewExporter(a.log, a.metrics) }

func main() {
	a := &app{v: config.New(), metrics: metrics.New()}
	var configPath string

	root := &cobra.Command{
		Use:           "deckgen",
		Short:         "Generate slide decks and documents from a prompt",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./deckgen.yaml when present)")
	root.PersistentFlags().String("log-level", "info", "log level: debug|info|warn|error")
	root.PersistentFlags().String("log-format", "console", "log format: console|json")
	root.PersistentFlags().String("metrics-textfile", "", "write prometheus metrics to this file on exit")
	root.PersistentFlags().Duration("timeout", 0, "timeout for each model call (config default 45s)")
	_ = a.v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", root.PersistentFlags().Lookup("log-format"))
	_ = a.v.BindPFlag("metrics.textfile", root.PersistentFlags().Lookup("metrics-textfile"))
	_ = a.v.BindPFlag("timeouts.call", root.PersistentFlags().Lookup("timeout"))

	root.AddCommand(generateCmd(a), shellCmd(a), schemaCmd(), templatesCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	// failed runs are counted too
	if a.cfg != nil {
		if werr := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); werr != nil {
			a.log.Warn().Err(werr).Str("path", a.cfg.Metrics.Textfile).Msg("failed to write metrics")
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, apperr.UserMessage(err))
		os.Exit(1)
	}
}
