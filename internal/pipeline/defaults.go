package pipeline

import (
	"github.com/samlevin11/TopographicPositionIndex/internal/classify"
	"github.com/samlevin11/TopographicPositionIndex/internal/config"
	"github.com/samlevin11/TopographicPositionIndex/internal/focal"
	"github.com/samlevin11/TopographicPositionIndex/internal/tpi"
)

// TPIParams returns the configured single-scale neighbourhood.
func TPIParams(cfg *config.Config) (tpi.Params, error) {
	unit, err := focal.ParseUnit(cfg.TPI.Unit)
	if err != nil {
		return tpi.Params{}, err
	}
	return tpi.Params{Outer: cfg.TPI.OuterRadius, Inner: cfg.TPI.InnerRadius, Unit: unit}, nil
}

// LandformScales returns the configured small and large neighbourhoods.
func LandformScales(cfg *config.Config) (small, large tpi.Params, err error) {
	unit, err := focal.ParseUnit(cfg.TPI.Unit)
	if err != nil {
		return tpi.Params{}, tpi.Params{}, err
	}
	small = tpi.Params{Outer: cfg.TPI.SmallOuterRadius, Inner: cfg.TPI.SmallInnerRadius, Unit: unit}
	large = tpi.Params{Outer: cfg.TPI.LargeOuterRadius, Inner: cfg.TPI.LargeInnerRadius, Unit: unit}
	return small, large, nil
}

// SlopePositionParams returns the configured slope position thresholds.
func SlopePositionParams(cfg *config.Config) classify.SlopePositionParams {
	return classify.SlopePositionParams{FlatThreshold: cfg.Classify.FlatSlopeThreshold}
}

// LandformParams returns the configured landform thresholds.
func LandformParams(cfg *config.Config) classify.LandformParams {
	return classify.LandformParams{
		StdDevThreshold: cfg.Classify.StdDevThreshold,
		SlopeThreshold:  cfg.Classify.LandformSlopeThreshold,
	}
}
