package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kinly/internal/taxonomy"
)

func newTaxonomyCmd(a *app) *cobra.Command {
	var flat bool
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Print the content section vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := a.cfg.Taxonomy
			if flat {
				name = taxonomy.NameFlat
			}
			tax, err := taxonomy.ByName(name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range tax.Categories() {
				fmt.Fprintln(out, c.Name)
				for _, s := range c.Sections {
					fmt.Fprintf(out, "  %s\n", s)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flat, "flat", false, "print the six-section flat vocabulary")
	return cmd
}
