package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danmuck/loomctl/internal/coordinator"
	"github.com/danmuck/loomctl/internal/pipeline"
)

var runInputPath string

var runCmd = &cobra.Command{
	Use:   "run <task> [input-file]",
	Short: "Plan and execute one task over an input document",
	Long: `Runs one pipeline end to end: the task goes to the planning model, the
validated plan executes over the input document, and the final text
lands on stdout. The input comes from the positional file argument,
--input, or stdin.

Examples:
  loomctl run "Summarize this article" article.txt
  cat report.txt | loomctl run "Anonymize this text and then summarize it"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTask,
}

func init() {
	runCmd.Flags().StringVar(&runInputPath, "input", "", "input document path ('-' or empty reads stdin)")
}

func runTask(cmd *cobra.Command, args []string) error {
	cfg, err := resolveServiceConfig()
	if err != nil {
		return err
	}
	input, err := readInput(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	coord, _, err := coordinator.NewWithConfig(ctx, cfg)
	if err != nil {
		return err
	}

	res, err := coord.Run(ctx, coordinator.RunRequest{Task: args[0], Input: input})
	if err != nil {
		var perr *pipeline.Error
		if errors.As(err, &perr) {
			for _, sr := range perr.Steps {
				fmt.Fprintf(os.Stderr, "  step %d %s: %s (%d attempts)\n",
					sr.Step, sr.Capability, sr.Status, sr.Attempts)
			}
		}
		return err
	}
	fmt.Println(res.Output.Text)
	return nil
}

func readInput(args []string) (string, error) {
	path := runInputPath
	if len(args) == 2 {
		path = args[1]
	}
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}
