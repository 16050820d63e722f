package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"evalviewer/src/storage/postgres/runctrl"
)

var showRunCmd = &cobra.Command{
	Use:   "show-run",
	Short: "Print the stored results of an eval run as JSON lines",
	RunE:  runShowRun,
}

func init() {
	rootCmd.AddCommand(showRunCmd)
	showRunCmd.Flags().Int("job", 0, "job ID of the run")
	showRunCmd.MarkFlagRequired("job")
}

func runShowRun(cmd *cobra.Command, args []string) error {
	jobID, _ := cmd.Flags().GetInt("job")

	db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	resultService, err := runctrl.NewResultService(db)
	if err != nil {
		return err
	}

	results, err := resultService.ListByJobID(context.Background(), jobID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no results stored for job %d", jobID)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
