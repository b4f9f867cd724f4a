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
	"github.com/sergen116/food-ordering-system/service/order"
)

func runOrderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run-order",
		Short: "run the Order service: saga engine, publish and cleanup sweepers for both outboxes, two replica consumers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd.Context())
		},
	}
}

func runOrder(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.OrderConfig.Name)

	db, err := sqlx.Connect("mysql", cfg.OrderConfig.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	producer, err := kafka.NewProducer(cfg.KafkaHost)
	if err != nil {
		return err
	}
	defer producer.Close()

	repo := order.NewRepo(db)
	svc := order.NewService(repo, order.NewRestaurantReplica(db), order.NewCustomerReplica(db), log)

	paymentRequestConsumer, err := kafka.NewConsumer(cfg.KafkaHost, cfg.Topics.PaymentResponse)
	if err != nil {
		return err
	}
	defer paymentRequestConsumer.Close()

	approvalResponseConsumer, err := kafka.NewConsumer(cfg.KafkaHost, cfg.Topics.RestaurantApprovalResponse)
	if err != nil {
		return err
	}
	defer approvalResponseConsumer.Close()

	customerConsumer, err := kafka.NewConsumer(cfg.KafkaHost, cfg.Topics.Customer)
	if err != nil {
		return err
	}
	defer customerConsumer.Close()

	restaurantConsumer, err := kafka.NewConsumer(cfg.KafkaHost, cfg.Topics.Restaurant)
	if err != nil {
		return err
	}
	defer restaurantConsumer.Close()

	go svc.ConsumePaymentResponses(ctx, paymentRequestConsumer.Messages(), paymentRequestConsumer.Errors())
	go svc.ConsumeApprovalResponses(ctx, approvalResponseConsumer.Messages(), approvalResponseConsumer.Errors())
	go svc.ConsumeCustomerReplica(ctx, customerConsumer.Messages(), customerConsumer.Errors())
	go svc.ConsumeRestaurantReplica(ctx, restaurantConsumer.Messages(), restaurantConsumer.Errors())

	paymentPublish := outbox.NewPublishSweeper(repo.PaymentOutbox(), repo.DB(), producer, cfg.Topics.PaymentRequest, cfg.Outbox.PublishInterval, cfg.Outbox.BatchSize, log)
	approvalPublish := outbox.NewPublishSweeper(repo.ApprovalOutbox(), repo.DB(), producer, cfg.Topics.RestaurantApprovalRequest, cfg.Outbox.PublishInterval, cfg.Outbox.BatchSize, log)
	paymentCleanup := outbox.NewCleanupSweeper(repo.PaymentOutbox(), repo.DB(), cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, log)
	approvalCleanup := outbox.NewCleanupSweeper(repo.ApprovalOutbox(), repo.DB(), cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, log)

	go paymentPublish.Run(ctx)
	go approvalPublish.Run(ctx)
	go paymentCleanup.Run(ctx)
	go approvalCleanup.Run(ctx)

	log.Info("order service started")
	<-ctx.Done()
	log.Info("order service shutting down")
	return nil
}
