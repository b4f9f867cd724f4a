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
	"github.com/sergen116/food-ordering-system/service/restaurant"
)

func runRestaurantCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run-restaurant",
		Short: "run the Restaurant service: approval-request consumer, response outbox publish and cleanup sweepers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestaurant(cmd.Context())
		},
	}
}

func runRestaurant(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.RestaurantConfig.Name)

	db, err := sqlx.Connect("mysql", cfg.RestaurantConfig.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	producer, err := kafka.NewProducer(cfg.KafkaHost)
	if err != nil {
		return err
	}
	defer producer.Close()

	repo := restaurant.NewRepo(db)
	svc := restaurant.NewService(repo, log)

	consumer, err := kafka.NewConsumer(cfg.KafkaHost, cfg.Topics.RestaurantApprovalRequest)
	if err != nil {
		return err
	}
	defer consumer.Close()

	go svc.Consume(ctx, consumer.Messages(), consumer.Errors())

	publish := outbox.NewPublishSweeper(repo.ResponseOutbox(), repo.DB(), producer, cfg.Topics.RestaurantApprovalResponse, cfg.Outbox.PublishInterval, cfg.Outbox.BatchSize, log)
	cleanup := outbox.NewCleanupSweeper(repo.ResponseOutbox(), repo.DB(), cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, log)

	go publish.Run(ctx)
	go cleanup.Run(ctx)

	log.Info("restaurant service started")
	<-ctx.Done()
	log.Info("restaurant service shutting down")
	return nil
}
