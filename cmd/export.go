package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/built-history/internal/export"
	"github.com/sells-group/built-history/internal/urban"
)

var (
	exportFlags lensFlags
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write one aggregation to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportOut == "" {
			return eris.New("--out is required")
		}

		env, err := initEngine(cmd.Context(), "export")
		if err != nil {
			return err
		}

		q, err := exportFlags.query(cmd, env.Defaults)
		if err != nil {
			return err
		}

		res := urban.Aggregate(q.Input(env.Snapshot.Buildings, env.Snapshot.Blocks))
		if err := export.WriteXLSX(exportOut, res, env.Legend.Labels(q.Taxonomy)); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("path", exportOut),
			zap.String("lens", res.Taxonomy.String()),
			zap.Int("blocks", len(res.Blocks)),
		)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d blocks)\n", exportOut, len(res.Blocks))
		return nil
	},
}

func init() {
	exportFlags.register(exportCmd)
	exportCmd.Flags().StringVar(&exportOut, "out", "", "path of the .xlsx file to write")
	rootCmd.AddCommand(exportCmd)
}
