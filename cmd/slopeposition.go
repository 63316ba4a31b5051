package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/samlevin11/TopographicPositionIndex/internal/model"
	"github.com/samlevin11/TopographicPositionIndex/internal/pipeline"
)

var slopePositionCmd = &cobra.Command{
	Use:   "slope-position",
	Short: "Classify slope position (ridge, upper, middle, flat, lower, valley)",
	Long: "Splits TPI at half and one standard deviation around its mean and separates " +
		"flat from steep mid-slopes using a slope grid in degrees. Pass --tpi for a " +
		"precomputed TPI grid or --dem to derive it.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		def, err := pipeline.TPIParams(cfg)
		if err != nil {
			return err
		}
		tpiParams, err := radiusParams(cmd, def, "outer", "inner")
		if err != nil {
			return err
		}
		params := pipeline.SlopePositionParams(cfg)
		params.FlatThreshold = floatFlag(cmd, "flat-threshold", params.FlatThreshold)

		runner, done, err := newRunner(ctx, cmd)
		if err != nil {
			return err
		}
		defer done()

		dem, _ := cmd.Flags().GetString("dem")
		tpiPath, _ := cmd.Flags().GetString("tpi")
		slope, _ := cmd.Flags().GetString("slope")
		res, err := runner.RunSlopePosition(ctx, pipeline.SlopePositionRequest{
			DEM:       dem,
			TPI:       tpiPath,
			Slope:     slope,
			TPIParams: tpiParams,
			Params:    params,
			Mask:      maskOptions(cmd),
			Out:       outputs(cmd),
		})
		if err != nil {
			return eris.Wrap(err, "slope-position")
		}
		return printResult(cmd.OutOrStdout(), model.RunKindSlopePosition, res)
	},
}

func init() {
	f := slopePositionCmd.Flags()
	f.String("dem", "", "input DEM, used when --tpi is not given")
	f.String("tpi", "", "precomputed TPI grid")
	f.String("slope", "", "slope grid in degrees (required)")
	f.Float64("flat-threshold", 0, "slope in degrees at or below which a mid-slope is flat (default from config)")
	_ = slopePositionCmd.MarkFlagRequired("slope")
	slopePositionCmd.MarkFlagsMutuallyExclusive("dem", "tpi")
	slopePositionCmd.MarkFlagsOneRequired("dem", "tpi")
	addRadiusFlags(slopePositionCmd, "outer", "inner", "TPI")
	addUnitFlag(slopePositionCmd)
	addMaskFlags(slopePositionCmd)
	addOutputFlags(slopePositionCmd)
	addSummaryFlag(slopePositionCmd)
	rootCmd.AddCommand(slopePositionCmd)
}
