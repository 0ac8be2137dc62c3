package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/built-history/internal/urban"
)

var aggregateFlags lensFlags

type aggregateOutput struct {
	SnapshotID string   `json:"snapshot_id"`
	Source     string   `json:"source"`
	Labels     []string `json:"labels"`
	urban.Result
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate the datasets for one window and lens and print JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEngine(cmd.Context(), "aggregate")
		if err != nil {
			return err
		}

		q, err := aggregateFlags.query(cmd, env.Defaults)
		if err != nil {
			return err
		}

		res := urban.Aggregate(q.Input(env.Snapshot.Buildings, env.Snapshot.Blocks))
		zap.L().Info("aggregate complete",
			zap.String("window", res.Window.String()),
			zap.String("lens", res.Taxonomy.String()),
			zap.Int("buildings", res.FilteredCount),
			zap.Int("blocks", len(res.Blocks)),
		)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(aggregateOutput{
			SnapshotID: env.Snapshot.ID.String(),
			Source:     env.Snapshot.Source,
			Labels:     env.Legend.Labels(q.Taxonomy),
			Result:     res,
		}); err != nil {
			return eris.Wrap(err, "encode aggregate output")
		}
		return nil
	},
}

func init() {
	aggregateFlags.register(aggregateCmd)
	rootCmd.AddCommand(aggregateCmd)
}
