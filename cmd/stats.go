package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/samlevin11/TopographicPositionIndex/internal/classify"
	"github.com/samlevin11/TopographicPositionIndex/internal/pipeline"
	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
	"github.com/samlevin11/TopographicPositionIndex/internal/rasterio"
	"github.com/samlevin11/TopographicPositionIndex/internal/render"
	"github.com/samlevin11/TopographicPositionIndex/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats <grid>",
	Short: "Print statistics of a grid",
	Long:  "Prints mean, population standard deviation, min and max of the valid cells. With --classes, also prints the per-class breakdown.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		classes, _ := cmd.Flags().GetString("classes")
		names, err := classNames(classes)
		if err != nil {
			return err
		}

		g, err := rasterio.Open(ctx, args[0], pipeline.OpenOptions(cfg))
		if err != nil {
			return eris.Wrap(err, "stats")
		}
		st, err := raster.ComputeStats(g)
		if err != nil {
			return eris.Wrap(err, "stats")
		}

		w := cmd.OutOrStdout()
		if err := report.PrintStats(w, args[0], st); err != nil {
			return err
		}
		if names != nil {
			if err := report.Print(w, report.Summarize(classes, g, names)); err != nil {
				return err
			}
		}

		if hist, _ := cmd.Flags().GetString("histogram"); hist != "" {
			if err := render.Histogram(g, cfg.Render.HistogramBins, args[0], hist); err != nil {
				return err
			}
		}
		return nil
	},
}

// classNames returns the class table for a product name, or nil for none.
func classNames(product string) (map[int]string, error) {
	switch product {
	case "":
		return nil, nil
	case "landform":
		return classify.LandformClasses(), nil
	case "slope-position", "slope_position":
		return classify.SlopePositionClasses(), nil
	default:
		return nil, eris.Errorf("unknown class table %q (want landform or slope-position)", product)
	}
}

func init() {
	statsCmd.Flags().String("classes", "", "class table for a categorical grid: landform or slope-position")
	statsCmd.Flags().String("histogram", "", "also write a value histogram to this path")
	rootCmd.AddCommand(statsCmd)
}
