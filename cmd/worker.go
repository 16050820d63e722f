package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"evalviewer/src/infrastructure/job"
	"evalviewer/src/log"
	"evalviewer/src/storage/minioctrl"
	"evalviewer/src/storage/postgres/runctrl"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background eval-run worker",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	logger := log.NewWatermillAdapter(log.Logger())

	db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	// Initialize AMQP publisher
	amqpPublisher, err := amqp.NewPublisher(
		amqp.NewDurableQueueConfig(viper.GetString("amqp.url")),
		logger,
	)
	if err != nil {
		return err
	}
	defer amqpPublisher.Close()

	// Initialize AMQP subscriber
	subscriberConfig := amqp.NewDurableQueueConfig(viper.GetString("amqp.url"))
	subscriberConfig.Consume.NoRequeueOnNack = true
	amqpSubscriber, err := amqp.NewSubscriber(subscriberConfig, logger)
	if err != nil {
		return err
	}
	defer amqpSubscriber.Close()

	// Initialize router
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return err
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: time.Second,
			Logger:          logger,
		}.Middleware,
	)

	minioService, err := minioctrl.NewMinioService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize minio service: %v", err)
	}

	resultService, err := runctrl.NewResultService(db)
	if err != nil {
		return fmt.Errorf("failed to initialize result service: %v", err)
	}

	completer, err := newCompleter()
	if err != nil {
		return fmt.Errorf("failed to initialize completion provider: %w", err)
	}

	evalRunTask := job.NewEvalRunTask(
		newBrowserService(completer),
		completer,
		resultService,
		minioctrl.NewRunExporter(minioService, viper.GetString("minio.runs_bucket")),
	)

	jobService := job.NewJobService(amqpPublisher, job.NewPostgresJobRepository(db), logger)
	jobService.Register(job.TaskTypeEvalRun, evalRunTask)

	router.AddNoPublisherHandler(
		"job_processor",
		job.Topic,
		amqpSubscriber,
		jobService.ProcessJobMessage,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Shutting down...")
		cancel()
		<-router.Running()
		log.Info("Router stopped")
		return nil
	case err := <-errCh:
		return err
	}
}
