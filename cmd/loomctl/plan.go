package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/loomctl/internal/coordinator"
)

var planCmd = &cobra.Command{
	Use:   "plan <task>",
	Short: "Plan and validate a task without executing it",
	Long: `Asks the planning model for a pipeline and validates it against the
capability registry. No capability is invoked; the accepted plan prints
one step per line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveServiceConfig()
		if err != nil {
			return err
		}
		coord, _, err := coordinator.NewWithConfig(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		p, replanned, err := coord.Propose(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if replanned {
			fmt.Println("# accepted on replan")
		}
		for i, s := range p.Steps {
			line := fmt.Sprintf("%d. %s", i+1, s.Capability)
			if len(s.Parameters) > 0 {
				params, _ := json.Marshal(s.Parameters)
				line += " " + string(params)
			}
			fmt.Println(line)
		}
		return nil
	},
}
