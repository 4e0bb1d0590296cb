package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ledger-posting-engine/internal/config"
	"github.com/ledger-posting-engine/internal/data/mongo"
	"github.com/ledger-posting-engine/internal/data/postgres"
	"github.com/ledger-posting-engine/internal/logger"
	"github.com/ledger-posting-engine/internal/platform/messaging/consumers"
	"github.com/ledger-posting-engine/internal/platform/messaging/producers"
	"github.com/ledger-posting-engine/internal/platform/persistence"
	"github.com/ledger-posting-engine/internal/platform/shutdown"
	"github.com/ledger-posting-engine/internal/posting/components"
	"github.com/ledger-posting-engine/internal/posting/service"
	"github.com/ledger-posting-engine/internal/transaction_processor/consumer"
	"github.com/ledger-posting-engine/internal/transaction_processor/outbox_poller"
)

func main() {
	os.Exit(run())
}

// run consumes posting requests and drains the outbox until a signal arrives
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg, err := config.LoadConfig("transaction_processor")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting transaction processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"config_source", cfg.Source,
	)

	var resources shutdown.Stack
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := resources.Close(closeCtx, log); err != nil {
			log.Error("Transaction processor stopped with errors", "error", err)
			return
		}
		log.Info("Transaction processor stopped")
	}()

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		return 1
	}
	resources.PushFunc("postgres", postgresDB.Close)

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		return 1
	}
	resources.Push("mongodb", mongoDB.Close)

	if err := mongo.EnsureActivityIndexes(ctx, mongoDB.Database()); err != nil {
		log.Error("Failed to ensure activity indexes", "error", err)
		return 1
	}

	dlqProducer, err := producers.NewDLQProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ producer", "error", err)
		return 1
	}
	resources.Push("dlq producer", func(context.Context) error { return dlqProducer.Close() })

	eventProducer, err := producers.NewPostedEventProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize posted-event producer", "error", err)
		return 1
	}
	resources.Push("posted-event producer", func(context.Context) error { return eventProducer.Close() })

	repos := components.Repositories{
		Accounts:     postgres.NewAccountRepository(log, postgresDB),
		Transactions: postgres.NewTransactionRepository(log, postgresDB),
		Entries:      postgres.NewEntryRepository(log, postgresDB),
		Balances:     postgres.NewBalanceRepository(log, postgresDB),
		Outbox:       postgres.NewOutboxRepository(log, postgresDB),
	}

	postingService := components.CreatePostingService(postgresDB.Pool(), repos, log, cfg)
	if pooled, ok := postingService.(*service.WorkerPoolPostingService); ok {
		resources.Push("worker pool", func(context.Context) error { return pooled.Shutdown(cfg.Server.ShutdownTimeout) })
	}

	kafkaConsumer := consumers.NewKafkaConsumer(ctx, log, &cfg.Kafka)
	resources.Push("kafka consumer", func(context.Context) error { return kafkaConsumer.Close() })

	requestHandler := consumer.NewPostingRequestHandler(log, postingService, dlqProducer)
	if err := kafkaConsumer.Subscribe(ctx, requestHandler.HandleMessage); err != nil {
		log.Error("Failed to subscribe to posting requests", "topic", cfg.Kafka.PostingTopic, "error", err)
		return 1
	}

	activityRepo := mongo.NewActivityRepository(log, mongoDB.Database())
	dispatcher := outbox_poller.NewEventDispatcher(repos.Outbox, activityRepo, eventProducer, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, repos.Outbox, dispatcher, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(ctx)
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")
	wg.Wait()
	return 0
}
