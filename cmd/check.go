package cmd

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"evalviewer/src/core/completion"
	"evalviewer/src/core/registry"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve every eval and validate every sample it points at",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	svc := newBrowserService(completion.Disabled{})

	evals, err := svc.ListEvals()
	if err != nil {
		return fmt.Errorf("failed to resolve registry: %w", err)
	}

	bar := progressbar.NewOptions(len(evals),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("checking evals"),
		progressbar.OptionShowCount(),
	)

	checked, err := svc.CheckAll(func(e registry.Eval) {
		bar.Describe(e.Name)
		_ = bar.Add(1)
	})
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), err.Error())
		return fmt.Errorf("check failed over %d evals", checked)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d evals OK\n", checked)
	return nil
}
