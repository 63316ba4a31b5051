package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/samlevin11/TopographicPositionIndex/internal/model"
	"github.com/samlevin11/TopographicPositionIndex/internal/pipeline"
)

var tpiCmd = &cobra.Command{
	Use:   "tpi",
	Short: "Compute a Topographic Position Index grid from a DEM",
	Long: "Subtracts the annulus focal mean of the DEM from each cell. Positive values sit " +
		"above their surroundings, negative values below.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		def, err := pipeline.TPIParams(cfg)
		if err != nil {
			return err
		}
		params, err := radiusParams(cmd, def, "outer", "inner")
		if err != nil {
			return err
		}

		runner, done, err := newRunner(ctx, cmd)
		if err != nil {
			return err
		}
		defer done()

		dem, _ := cmd.Flags().GetString("dem")
		res, err := runner.RunTPI(ctx, pipeline.TPIRequest{
			DEM:    dem,
			Params: params,
			Mask:   maskOptions(cmd),
			Out:    outputs(cmd),
		})
		if err != nil {
			return eris.Wrap(err, "tpi")
		}
		return printResult(cmd.OutOrStdout(), model.RunKindTPI, res)
	},
}

func init() {
	tpiCmd.Flags().String("dem", "", "input DEM: local .asc/.zip path or ftp:// URL (required)")
	_ = tpiCmd.MarkFlagRequired("dem")
	addRadiusFlags(tpiCmd, "outer", "inner", "TPI")
	addUnitFlag(tpiCmd)
	addMaskFlags(tpiCmd)
	addOutputFlags(tpiCmd)
	rootCmd.AddCommand(tpiCmd)
}
