package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	apppositions "main/internal/application/service/positions"
	"main/internal/config"
	infrabroker "main/internal/infrastructure/broker"
	infrapositions "main/internal/infrastructure/positions"
	infratransactions "main/internal/infrastructure/transactions"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transactionRepo, err := infratransactions.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to init transactions repo: %v", err)
	}
	defer transactionRepo.Close()

	positionRepo, err := infrapositions.NewRepository(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to init positions repo: %v", err)
	}
	defer positionRepo.Close()

	rabbitConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatalf("connect rabbitmq: %v", err)
	}
	defer rabbitConn.Close()

	publisher, err := infrabroker.NewPositionPublisher(rabbitConn, cfg.RabbitMQ.PositionsExchange, logger)
	if err != nil {
		logger.Fatalf("init position publisher: %v", err)
	}
	defer publisher.Close()

	positionService := apppositions.NewService(positionRepo, transactionRepo, logger, publisher)

	consumer, err := infrabroker.NewConsumer(cfg.RabbitMQ, positionService, logger)
	if err != nil {
		logger.Fatalf("init consumer: %v", err)
	}

	if err := consumer.Start(ctx); err != nil {
		logger.Fatalf("start consumer: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return consumer.Close(context.Background())
	})

	logger.WithFields(logrus.Fields{
		"transactions_ex": cfg.RabbitMQ.TransactionsExchange,
		"positions_ex":    cfg.RabbitMQ.PositionsExchange,
	}).Info("consumer started")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("consumer stopped with error: %v", err)
	}
	logger.Info("consumer stopped")
}
