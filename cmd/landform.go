package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/samlevin11/TopographicPositionIndex/internal/model"
	"github.com/samlevin11/TopographicPositionIndex/internal/pipeline"
)

var landformCmd = &cobra.Command{
	Use:   "landform",
	Short: "Classify landforms from a small- and a large-neighbourhood TPI",
	Long: "Standardizes two TPI scales, splits each at the standard deviation threshold and " +
		"combines them with slope into ten landform classes. Pass --small-tpi and " +
		"--large-tpi for precomputed grids or --dem to derive both scales concurrently.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		defSmall, defLarge, err := pipeline.LandformScales(cfg)
		if err != nil {
			return err
		}
		small, err := radiusParams(cmd, defSmall, "small-outer", "small-inner")
		if err != nil {
			return err
		}
		large, err := radiusParams(cmd, defLarge, "large-outer", "large-inner")
		if err != nil {
			return err
		}
		params := pipeline.LandformParams(cfg)
		params.StdDevThreshold = floatFlag(cmd, "stdev-threshold", params.StdDevThreshold)
		params.SlopeThreshold = floatFlag(cmd, "slope-threshold", params.SlopeThreshold)

		runner, done, err := newRunner(ctx, cmd)
		if err != nil {
			return err
		}
		defer done()

		dem, _ := cmd.Flags().GetString("dem")
		smallTPI, _ := cmd.Flags().GetString("small-tpi")
		largeTPI, _ := cmd.Flags().GetString("large-tpi")
		slope, _ := cmd.Flags().GetString("slope")
		res, err := runner.RunLandform(ctx, pipeline.LandformRequest{
			DEM:      dem,
			SmallTPI: smallTPI,
			LargeTPI: largeTPI,
			Slope:    slope,
			Small:    small,
			Large:    large,
			Params:   params,
			Mask:     maskOptions(cmd),
			Out:      outputs(cmd),
		})
		if err != nil {
			return eris.Wrap(err, "landform")
		}
		return printResult(cmd.OutOrStdout(), model.RunKindLandform, res)
	},
}

func init() {
	f := landformCmd.Flags()
	f.String("dem", "", "input DEM, used when TPI grids are not given")
	f.String("small-tpi", "", "precomputed small-neighbourhood TPI grid")
	f.String("large-tpi", "", "precomputed large-neighbourhood TPI grid")
	f.String("slope", "", "slope grid in degrees (required)")
	f.Float64("stdev-threshold", 0, "standard deviations splitting low, neutral and high TPI (default from config)")
	f.Float64("slope-threshold", 0, "slope in degrees above which a neutral cell is an open slope (default from config)")
	_ = landformCmd.MarkFlagRequired("slope")
	landformCmd.MarkFlagsRequiredTogether("small-tpi", "large-tpi")
	landformCmd.MarkFlagsMutuallyExclusive("dem", "small-tpi")
	landformCmd.MarkFlagsOneRequired("dem", "small-tpi")
	addRadiusFlags(landformCmd, "small-outer", "small-inner", "small")
	addRadiusFlags(landformCmd, "large-outer", "large-inner", "large")
	addUnitFlag(landformCmd)
	addMaskFlags(landformCmd)
	addOutputFlags(landformCmd)
	addSummaryFlag(landformCmd)
	rootCmd.AddCommand(landformCmd)
}
