package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"evalviewer/src/infrastructure/job"
	"evalviewer/src/log"
)

var enqueueRunCmd = &cobra.Command{
	Use:   "enqueue-run",
	Short: "Enqueue a batch run of one eval's samples",
	RunE:  runEnqueueRun,
}

func init() {
	rootCmd.AddCommand(enqueueRunCmd)
	enqueueRunCmd.Flags().String("eval", "", "eval name")
	enqueueRunCmd.MarkFlagRequired("eval")
	enqueueRunCmd.Flags().Int("limit", 0, "maximum number of samples to run, 0 runs all")
}

func runEnqueueRun(cmd *cobra.Command, args []string) error {
	evalName, _ := cmd.Flags().GetString("eval")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return fmt.Errorf("limit must not be negative: %d", limit)
	}

	logger := log.NewWatermillAdapter(log.Logger())

	db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	// Initialize AMQP publisher
	publisher, err := amqp.NewPublisher(
		amqp.NewDurableQueueConfig(viper.GetString("amqp.url")),
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}
	defer publisher.Close()

	jobService := job.NewJobService(publisher, job.NewPostgresJobRepository(db), logger)

	payload, err := json.Marshal(job.EvalRunPayload{Eval: evalName, Limit: limit})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	created, err := jobService.EnqueueJob(context.Background(), job.TaskTypeEvalRun, payload)
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	fmt.Printf("Successfully enqueued job with ID: %d\n", created.ID)
	return nil
}
