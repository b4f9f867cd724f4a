package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/sergen116/food-ordering-system/config"
	"github.com/sergen116/food-ordering-system/kafka"
	"github.com/sergen116/food-ordering-system/outbox"
	"github.com/sergen116/food-ordering-system/pkg/logging"
	"github.com/sergen116/food-ordering-system/service/customer"
)

func runCustomerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run-customer",
		Short: "run the Customer service's outbox sweepers (no inbound consumer — spec.md §1)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCustomer(cmd.Context())
		},
	}
}

func runCustomer(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.CustomerConfig.Name)

	db, err := sqlx.Connect("mysql", cfg.CustomerConfig.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	producer, err := kafka.NewProducer(cfg.KafkaHost)
	if err != nil {
		return err
	}
	defer producer.Close()

	repo := customer.NewRepo(db)

	publish := outbox.NewPublishSweeper(repo.Outbox(), repo.DB(), producer, cfg.Topics.Customer, cfg.Outbox.PublishInterval, cfg.Outbox.BatchSize, log)
	cleanup := outbox.NewCleanupSweeper(repo.Outbox(), repo.DB(), cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, log)

	go publish.Run(ctx)
	go cleanup.Run(ctx)

	log.Info("customer service started")
	<-ctx.Done()
	log.Info("customer service shutting down")
	return nil
}
