package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toladimeji/crimewatch/internal/model"
)

var (
	processReport string
	processLat    float64
	processLon    float64
	processDryRun bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the filtering pipeline on a single report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if processReport == "" {
			return eris.New("--report is required")
		}

		var caller *model.Coordinates
		if processLat != 0 && processLon != 0 {
			caller = &model.Coordinates{Latitude: processLat, Longitude: processLon}
		}

		state := initPipeline().Run(ctx, processReport, caller)

		if !processDryRun && state.TrustScore > cfg.Policy.PersistThreshold {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}

			report, err := st.CreateReport(ctx, state)
			if err != nil {
				return eris.Wrap(err, "save report")
			}
			zap.L().Info("report saved", zap.String("report_id", report.ID))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(state), "encode state")
	},
}

func init() {
	processCmd.Flags().StringVar(&processReport, "report", "", "report text to process")
	processCmd.Flags().Float64Var(&processLat, "lat", 0, "caller latitude (optional)")
	processCmd.Flags().Float64Var(&processLon, "lon", 0, "caller longitude (optional)")
	processCmd.Flags().BoolVar(&processDryRun, "dry-run", false, "run the pipeline without persisting")
	rootCmd.AddCommand(processCmd)
}
