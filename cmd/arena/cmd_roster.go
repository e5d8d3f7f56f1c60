package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var rosterCmd = &cobra.Command{
	Use:   "roster <roster.yaml>",
	Short: "List the models in a roster file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoster,
}

func runRoster(cmd *cobra.Command, args []string) error {
	roster, err := LoadRoster(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tOFF\tDEF\tAGI\tSTR\tEND")
	for _, m := range roster.Models {
		a := m.Attributes
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\n",
			m.ID, m.Name, a.Offense, a.Defense, a.Agility, a.Strategy, a.Endurance)
	}
	return w.Flush()
}
