package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"scholarship-engine/internal/engine/modelstore"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <model.json>",
		Short: "Validate a model file and print its parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := modelstore.LoadFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version:  %d\n", m.Version)
			if !m.TrainedAt.IsZero() {
				fmt.Fprintf(out, "trained:  %s (%d examples)\n", m.TrainedAt.Format("2006-01-02 15:04:05"), m.TrainingExamples)
			}
			fmt.Fprintf(out, "bias:     %.6f\n\n", m.Bias)

			order := make([]int, len(m.FeatureNames))
			for i := range order {
				order[i] = i
			}
			sort.SliceStable(order, func(a, b int) bool {
				return abs(m.Weights[order[a]]) > abs(m.Weights[order[b]])
			})

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FEATURE\tCATEGORY\tWEIGHT")
			for _, i := range order {
				category := m.CategoryOf[m.FeatureNames[i]]
				if category == "" {
					category = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%+.6f\n", m.FeatureNames[i], category, m.Weights[i])
			}
			return tw.Flush()
		},
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
