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
	"github.com/sergen116/food-ordering-system/service/payment"
)

func runPaymentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run-payment",
		Short: "run the Payment service: payment-request consumer, response outbox sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPayment(cmd.Context())
		},
	}
}

func runPayment(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.PaymentConfig.Name)

	db, err := sqlx.Connect("mysql", cfg.PaymentConfig.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	producer, err := kafka.NewProducer(cfg.KafkaHost)
	if err != nil {
		return err
	}
	defer producer.Close()

	repo := payment.NewRepo(db)
	svc := payment.NewService(repo, log)

	consumer, err := kafka.NewConsumer(cfg.KafkaHost, cfg.Topics.PaymentRequest)
	if err != nil {
		return err
	}
	defer consumer.Close()

	go svc.Consume(ctx, consumer.Messages(), consumer.Errors())

	publish := outbox.NewPublishSweeper(repo.ResponseOutbox(), repo.DB(), producer, cfg.Topics.PaymentResponse, cfg.Outbox.PublishInterval, cfg.Outbox.BatchSize, log)
	cleanup := outbox.NewCleanupSweeper(repo.ResponseOutbox(), repo.DB(), cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, log)

	go publish.Run(ctx)
	go cleanup.Run(ctx)

	log.Info("payment service started")
	<-ctx.Done()
	log.Info("payment service shutting down")
	return nil
}
