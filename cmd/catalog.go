package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/samlevin11/TopographicPositionIndex/internal/pipeline"
	"github.com/samlevin11/TopographicPositionIndex/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
}

// newRunner returns a runner backed by the configured catalog, or by none
// when --no-catalog is set. The returned func releases the catalog.
func newRunner(ctx context.Context, cmd *cobra.Command) (*pipeline.Runner, func(), error) {
	noCatalog, _ := cmd.Flags().GetBool("no-catalog")
	if noCatalog {
		return pipeline.New(cfg, nil), func() {}, nil
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.New(cfg, st), func() { st.Close() }, nil //nolint:errcheck
}
