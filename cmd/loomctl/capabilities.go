package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danmuck/loomctl/internal/coordinator"
	"github.com/danmuck/loomctl/internal/registry"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Print the capability registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveServiceConfig()
		if err != nil {
			return err
		}
		catalog, err := coordinator.ResolveCatalog(cfg)
		if err != nil {
			return err
		}
		reg, err := registry.New(catalog)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tINPUT\tOUTPUT\tTARGET\tDESCRIPTION")
		for _, c := range reg.List() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				c.Name, c.InputShape, c.OutputShape, c.Target.Kind, c.Description)
		}
		return w.Flush()
	},
}
