package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"landrec/internal/platform/kafka"
	"landrec/internal/platform/logger"
	"landrec/internal/platform/postgres"
	audit "landrec/pkg/platform/audit"
	"landrec/pkg/platform/audit/consumer"
	auditpg "landrec/pkg/platform/audit/store/postgres"
)

func newConsumeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit-consume",
		Short: "Archive registry audit events from the audit topic",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("database.url is required to archive audit events")
			}
			if len(cfg.Kafka.Brokers) == 0 {
				return errors.New("kafka.brokers is required to consume audit events")
			}
			log := logger.New(cfg.Log)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := postgres.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			c, err := kafka.NewConsumer(cfg.Kafka, log)
			if err != nil {
				return err
			}
			defer c.Close()

			router := consumer.NewRouter(log, consumer.NewLogHandler(log, slog.LevelDebug))
			router.Register(audit.CategoryRegistry, consumer.NewRegistryHandler(auditpg.New(db), log))
			router.Register(audit.CategoryWorkflow, consumer.NewLogHandler(log, slog.LevelInfo))

			log.InfoContext(ctx, "consuming audit events",
				"topic", cfg.Kafka.AuditTopic,
				"group", cfg.Kafka.ConsumerGroup,
			)
			if err := c.Run(ctx, router); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.InfoContext(ctx, "audit consumer stopped")
			return nil
		},
	}
}
