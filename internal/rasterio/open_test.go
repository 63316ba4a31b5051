package rasterio

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZIP(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dem.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestOpen_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dem.asc")
	require.NoError(t, os.WriteFile(path, []byte(sampleASCII), 0o644))

	g, err := Open(context.Background(), path, OpenOptions{})
	require.NoError(t, err)
	assert.Equal(t, 12, g.Meta().Cells())
}

func TestOpen_ZIP(t *testing.T) {
	path := writeZIP(t, map[string]string{
		"README.txt.md": "not a grid",
		"dem/dem.asc":   sampleASCII,
		"dem/dem.prj":   `PROJCS["NAD83 / UTM zone 13N"]`,
	})

	g, err := Open(context.Background(), path, OpenOptions{})
	require.NoError(t, err)
	assert.Equal(t, 11, g.ValidCount())
}

func TestOpen_ZIPWithoutSingleGrid(t *testing.T) {
	path := writeZIP(t, map[string]string{
		"a.asc": sampleASCII,
		"b.asc": sampleASCII,
	})

	_, err := Open(context.Background(), path, OpenOptions{})
	assert.Error(t, err)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.asc"), OpenOptions{})
	assert.Error(t, err)
}

func TestParseFTPURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPath string
		wantErr  bool
	}{
		{
			name:     "standard ftp url",
			url:      "ftp://rockyftp.cr.usgs.gov/vdelivery/dem.asc",
			wantHost: "rockyftp.cr.usgs.gov:21",
			wantPath: "/vdelivery/dem.asc",
		},
		{
			name:     "ftp url with port",
			url:      "ftp://ftp.example.com:2121/elev/n40w106.zip",
			wantHost: "ftp.example.com:2121",
			wantPath: "/elev/n40w106.zip",
		},
		{
			name:    "http scheme rejected",
			url:     "http://example.com/dem.asc",
			wantErr: true,
		},
		{
			name:    "empty path",
			url:     "ftp://ftp.example.com",
			wantErr: true,
		},
		{
			name:    "invalid url",
			url:     "://bad",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, path, err := parseFTPURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}
