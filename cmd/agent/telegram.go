package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voice-agent/internal/adapter/telegram"
)

func newTelegramCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "telegram",
		Short: "Run the Telegram bot",
		Long:  "Answers Telegram voice messages through the chat pipeline, one session per chat.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runTelegram(ctx, cmd, flags)
		},
	}
}

func runTelegram(ctx context.Context, cmd *cobra.Command, flags *globalFlags) error {
	a, err := build(ctx, flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN not configured")
	}
	bot, err := telegram.NewBot(a.cfg, a.agent, a.logger)
	if err != nil {
		return fmt.Errorf("init telegram bot: %w", err)
	}

	if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("bot stopped: %w", err)
	}
	a.logger.Info("shutdown")
	return nil
}
