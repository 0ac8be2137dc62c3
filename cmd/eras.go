package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/built-history/internal/urban"
)

var erasCmd = &cobra.Command{
	Use:   "eras",
	Short: "List the era presets with their legend labels and colours",
	RunE: func(cmd *cobra.Command, args []string) error {
		lg, err := loadLegend(cfg.Legend)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, w := range urban.EraPresets() {
			b := urban.Bucket(i)
			_, _ = fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", i, w, lg.Label(urban.Era, b), lg.Color(urban.Era, b))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(erasCmd)
}
