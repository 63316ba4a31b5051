package rasterio

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

// ClassCount is one row of a categorical output summary.
type ClassCount struct {
	Code    int     `json:"code" yaml:"code"`
	Name    string  `json:"name" yaml:"name"`
	Cells   int     `json:"cells" yaml:"cells"`
	Area    float64 `json:"area" yaml:"area"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Metadata is written next to every output grid.
type Metadata struct {
	Product    string            `yaml:"product"`
	RunID      string            `yaml:"run_id,omitempty"`
	CreatedAt  time.Time         `yaml:"created_at"`
	Sources    map[string]string `yaml:"sources,omitempty"`
	CRS        CRS               `yaml:"crs"`
	Grid       raster.Meta       `yaml:"grid"`
	Stats      *raster.Stats     `yaml:"stats,omitempty"`
	Parameters any               `yaml:"parameters,omitempty"`
	Classes    []ClassCount      `yaml:"classes,omitempty"`
}

// MetadataPath returns the sidecar path for an output grid.
func MetadataPath(gridPath string) string {
	return gridPath + ".meta.yaml"
}

// WriteMetadata writes md as YAML to path.
func WriteMetadata(path string, md Metadata) error {
	b, err := yaml.Marshal(md)
	if err != nil {
		return eris.Wrap(err, "rasterio: marshal metadata")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return eris.Wrapf(err, "rasterio: write %s", path)
	}
	return nil
}

// ReadMetadata loads a sidecar written by WriteMetadata. Parameters are
// decoded as a generic map.
func ReadMetadata(path string) (Metadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, eris.Wrapf(err, "rasterio: read %s", path)
	}
	var md Metadata
	if err := yaml.Unmarshal(b, &md); err != nil {
		return Metadata{}, eris.Wrapf(err, "rasterio: parse %s", path)
	}
	return md, nil
}
