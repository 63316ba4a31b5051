package rasterio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samlevin11/TopographicPositionIndex/internal/focal"
)

const utmWKT = `PROJCS["NAD_1983_UTM_Zone_13N",GEOGCS["GCS_North_American_1983",DATUM["D_North_American_1983",SPHEROID["GRS_1980",6378137.0,298.257222101]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["Central_Meridian",-105.0],UNIT["Meter",1.0]]`

const wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

func TestParseWKT(t *testing.T) {
	tests := []struct {
		name string
		wkt  string
		want CRS
	}{
		{"projected", utmWKT, CRS{Known: true, Name: "NAD_1983_UTM_Zone_13N", LinearUnit: "Meter"}},
		{"geographic", wgs84WKT, CRS{Known: true, Geographic: true, Name: "GCS_WGS_1984"}},
		{"garbage", "hello", CRS{}},
		{"unknown root", `VERT_CS["NAVD88"]`, CRS{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseWKT(tt.wkt))
		})
	}
}

func TestDescribeCRS(t *testing.T) {
	dir := t.TempDir()
	dem := filepath.Join(dir, "dem.asc")

	crs, err := DescribeCRS(dem)
	require.NoError(t, err)
	assert.False(t, crs.Known)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dem.prj"), []byte(utmWKT+"\n"), 0o644))
	crs, err = DescribeCRS(dem)
	require.NoError(t, err)
	assert.True(t, crs.Known)
	assert.Equal(t, "Meter", crs.LinearUnit)
}

func TestCheckUnits(t *testing.T) {
	geographic := ParseWKT(wgs84WKT)
	projected := ParseWKT(utmWKT)

	assert.NotEmpty(t, CheckUnits(geographic, focal.UnitGround))
	assert.Empty(t, CheckUnits(geographic, focal.UnitCell))
	assert.Empty(t, CheckUnits(projected, focal.UnitGround))
	assert.NotEmpty(t, CheckUnits(CRS{}, focal.UnitGround))

	assert.Equal(t, "meter", UnitLabel(projected, focal.UnitGround))
	assert.Equal(t, "CELL", UnitLabel(projected, focal.UnitCell))
}
