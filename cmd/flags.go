package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/samlevin11/TopographicPositionIndex/internal/focal"
	"github.com/samlevin11/TopographicPositionIndex/internal/mask"
	"github.com/samlevin11/TopographicPositionIndex/internal/model"
	"github.com/samlevin11/TopographicPositionIndex/internal/pipeline"
	"github.com/samlevin11/TopographicPositionIndex/internal/report"
	"github.com/samlevin11/TopographicPositionIndex/internal/tpi"
)

func addMaskFlags(cmd *cobra.Command) {
	cmd.Flags().String("mask", "", "polygon shapefile; cells outside it become no-data")
	cmd.Flags().String("mask-raster", "", "grid whose no-data cells become no-data in the output")
}

func maskOptions(cmd *cobra.Command) mask.Options {
	shapefile, _ := cmd.Flags().GetString("mask")
	grid, _ := cmd.Flags().GetString("mask-raster")
	return mask.Options{Shapefile: shapefile, Raster: grid}
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "", "output ESRI ASCII grid (required)")
	cmd.Flags().String("quicklook", "", "also write a PNG quicklook to this path")
	cmd.Flags().String("histogram", "", "also write a value histogram to this path")
	_ = cmd.MarkFlagRequired("out")
}

func outputs(cmd *cobra.Command) pipeline.Outputs {
	out, _ := cmd.Flags().GetString("out")
	quicklook, _ := cmd.Flags().GetString("quicklook")
	histogram, _ := cmd.Flags().GetString("histogram")
	summary := ""
	if cmd.Flags().Lookup("summary") != nil {
		summary, _ = cmd.Flags().GetString("summary")
	}
	return pipeline.Outputs{Grid: out, Quicklook: quicklook, Histogram: histogram, Summary: summary}
}

func addSummaryFlag(cmd *cobra.Command) {
	cmd.Flags().String("summary", "", "also write the per-class summary workbook (.xlsx) to this path")
}

// addRadiusFlags registers an outer/inner radius pair. Unset flags fall back
// to the configured neighbourhood.
func addRadiusFlags(cmd *cobra.Command, outer, inner, scale string) {
	cmd.Flags().Float64(outer, 0, "outer annulus radius of the "+scale+" neighbourhood")
	cmd.Flags().Float64(inner, 0, "inner annulus radius of the "+scale+" neighbourhood")
}

func addUnitFlag(cmd *cobra.Command) {
	cmd.Flags().String("unit", "", "radius unit: CELL or MAP (default from config)")
}

func radiusParams(cmd *cobra.Command, def tpi.Params, outer, inner string) (tpi.Params, error) {
	p := def
	p.Outer = floatFlag(cmd, outer, p.Outer)
	p.Inner = floatFlag(cmd, inner, p.Inner)
	if cmd.Flags().Changed("unit") {
		s, _ := cmd.Flags().GetString("unit")
		u, err := focal.ParseUnit(s)
		if err != nil {
			return tpi.Params{}, err
		}
		p.Unit = u
	}
	return p, nil
}

func floatFlag(cmd *cobra.Command, name string, def float64) float64 {
	if !cmd.Flags().Changed(name) {
		return def
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return v
}

// printResult writes the run statistics and, for classified products, the
// class table.
func printResult(w io.Writer, kind model.RunKind, res *model.RunResult) error {
	if err := report.PrintStats(w, res.Output, *res.Stats); err != nil {
		return err
	}
	if len(res.Classes) == 0 {
		return nil
	}
	return report.Print(w, report.FromClassCounts(string(kind), res.Stats.Count, res.Classes))
}
