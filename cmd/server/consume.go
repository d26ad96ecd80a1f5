package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/maternal-health/internal/config"
	"github.com/iliyamo/maternal-health/internal/queue"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Append submission events from RabbitMQ to submissions.log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := config.LoadQueueConfig()
		logger.Info("consuming submission events", zap.String("queue", cfg.Queue), zap.String("log_dir", cfg.LogDir))
		err := queue.StartSubmissionConsumer(ctx, cfg, logger.Named("consumer"))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
