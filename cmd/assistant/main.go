package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kebbi/config"
	"kebbi/internal/application"
	"kebbi/internal/domain"
	"kebbi/internal/infra/httpapi"
	"kebbi/internal/infra/scheduler"
	"kebbi/internal/infra/telegram"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "assistant",
		Short:         "Kebbi companion robot backend",
		Long:          "Chats with the user, remembers where things are and keeps track of schedules.",
		Version:       version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file (empty for environment only)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API, listening loop, Telegram bot and digest scheduler",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "ask <text>",
			Short: "Handle one utterance and print the reply",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(configPath, func(a *app) error {
					reply := a.service.Handle(cmd.Context(), domain.NewTextUtterance(strings.Join(args, " ")))
					if reply.Text == "" {
						return errors.New("no reply: generation unavailable")
					}
					fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "classify <text>",
			Short: "Print the intent label for an utterance",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(configPath, func(a *app) error {
					intent := a.service.Classify(cmd.Context(), domain.NewTextUtterance(strings.Join(args, " ")))
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t(%s)\n", intent.Label(), intent.Kind)
					return nil
				})
			},
		},
		newDigestCmd(&configPath),
	)

	return root
}

func newDigestCmd(configPath *string) *cobra.Command {
	var (
		date string
		send bool
	)

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Print the summary of what was logged on a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day := time.Now()
			if date != "" {
				var err error
				day, err = time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}

			return withApp(*configPath, func(a *app) error {
				d := a.service.BuildDigest(cmd.Context(), day)
				fmt.Fprintln(cmd.OutOrStdout(), d.Summary())
				if send && !d.Empty() {
					return createNotifiers(a.cfg).Notify(cmd.Context(), d.Summary())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to summarize (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&send, "send", false, "also deliver the digest through the configured notifiers")
	return cmd
}

// withApp builds the dependencies for a one-shot command. Logs go to stderr so
// stdout carries only the command output.
func withApp(configPath string, fn func(*app) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, setupLogger(cfg.Log, os.Stderr))
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func runServe(parent context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		return err
	}

	logger := setupLogger(cfg.Log, os.Stdout)

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			logger.Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("building assistant", "error", err)
		return err
	}
	defer a.Close()

	notifiers := createNotifiers(cfg)

	var bot *telegram.Bot
	if cfg.Telegram.Enabled {
		bot, err = telegram.New(telegram.Options{
			Token:        cfg.Telegram.Token,
			APIEndpoint:  cfg.Telegram.APIEndpoint,
			AllowedChats: cfg.Telegram.AllowedChats,
			NotifyChat:   cfg.Telegram.NotifyChat,
		}, a.service, a.stt, logger)
		if err != nil {
			logger.Error("starting telegram bot", "error", err)
			return err
		}
		notifiers = append(notifiers, bot)
	}

	server := httpapi.NewServer(a.service, a.stt, a.metrics, httpapi.Options{
		Addr:           cfg.Server.Addr,
		AuthToken:      cfg.Server.AuthToken,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		UploadDir:      cfg.Server.UploadDir,
		RateLimit:      cfg.Server.RateLimit,
	}, logger)
	if err := server.Start(ctx); err != nil {
		logger.Error("starting HTTP API", "error", err)
		return err
	}
	defer server.Stop()

	if cfg.Digest.Enabled {
		loc, _ := cfg.DigestLocation()
		sched := scheduler.New(a.service, notifiers, cfg.Digest.Cron, loc, logger)
		if err := sched.Start(); err != nil {
			logger.Error("starting digest scheduler", "error", err)
			return err
		}
		defer sched.Stop()
	}

	errCh := make(chan error, 2)

	if bot != nil {
		go func() { errCh <- bot.Run(ctx) }()
	}

	if source := createAudioSource(cfg.Audio, logger); source != nil {
		assistant := application.NewAssistant(source, a.stt, a.service, notifiers, logger)
		go func() { errCh <- assistant.Run(ctx) }()
	}

	logger.Info("kebbi assistant running",
		"addr", cfg.Server.Addr,
		"audio_source", cfg.Audio.Source,
		"telegram", cfg.Telegram.Enabled,
		"digest", cfg.Digest.Enabled,
	)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("assistant error", "error", err)
			return err
		}
		return nil
	}
}

func setupLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
