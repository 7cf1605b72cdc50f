package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/toladimeji/crimewatch/internal/store"
)

var reportsLimit int

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List verified reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		reports, err := st.ListReports(ctx, store.ReportFilter{
			MinTrustScore: cfg.Policy.DisplayThreshold,
			Limit:         reportsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list reports")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(reports), "encode reports")
	},
}

func init() {
	reportsCmd.Flags().IntVar(&reportsLimit, "limit", 0, "max reports to list (0 = all)")
	rootCmd.AddCommand(reportsCmd)
}
