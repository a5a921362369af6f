package cmd

import (
	"context"

	"github.com/spigell/hireflow/internal/export"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored screening records to an Excel workbook",
	Run: func(cmd *cobra.Command, _ []string) {
		exportCandidates(cmd)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("out", "o", "candidates.xlsx", "output workbook path")
}

func exportCandidates(cmd *cobra.Command) {
	ctx := context.Background()

	rt := bootstrap(ctx)
	defer rt.close()

	out, _ := cmd.Flags().GetString("out")

	candidates, err := rt.store.List(ctx)
	if err != nil {
		rt.logger.Fatal("listing candidates", zap.Error(err))
	}

	if len(candidates) == 0 {
		rt.logger.Info("exiting", zap.String("reason", "no candidates stored"))
		return
	}

	path, err := export.Workbook(candidates, out)
	if err != nil {
		rt.logger.Fatal("writing the workbook", zap.Error(err))
	}

	rt.logger.Info("candidates exported", zap.String("path", path), zap.Int("count", len(candidates)))
}
