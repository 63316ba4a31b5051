// Package rasterio loads and saves grids. The on-disk format is the ESRI
// ASCII grid; sources may be local files, zip archives holding one grid, or
// ftp:// URLs.
package rasterio

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

type asciiHeader struct {
	ncols, nrows int
	xll, yll     float64
	centre       bool
	dx, dy       float64
	noData       float64
	seen         map[string]bool
}

// ReadASCII parses an ESRI ASCII grid. Header keys are case-insensitive;
// xllcenter/yllcenter, dx/dy and a missing NODATA_value (default -9999) are
// accepted.
func ReadASCII(r io.Reader) (*raster.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	h := asciiHeader{noData: raster.DefaultNoData, seen: map[string]bool{}}
	var first string
	for sc.Scan() {
		tok := sc.Text()
		if !isHeaderKey(tok) {
			first = tok
			break
		}
		key := strings.ToLower(tok)
		if !sc.Scan() {
			return nil, eris.Errorf("ascii grid: header key %q has no value", tok)
		}
		if err := h.set(key, sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "ascii grid: read header")
	}
	meta, err := h.meta()
	if err != nil {
		return nil, err
	}

	values := make([]float64, 0, meta.Cells())
	if first != "" {
		v, err := parseCell(first, 0)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	for sc.Scan() {
		if len(values) == meta.Cells() {
			return nil, eris.Errorf("ascii grid: more than %d values", meta.Cells())
		}
		v, err := parseCell(sc.Text(), len(values))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "ascii grid: read values")
	}
	if len(values) != meta.Cells() {
		return nil, eris.Errorf("ascii grid: got %d values, want %d", len(values), meta.Cells())
	}
	return raster.New(meta, values)
}

// ReadASCIIFile reads an ESRI ASCII grid from path.
func ReadASCIIFile(path string) (*raster.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ascii grid: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	g, err := ReadASCII(f)
	if err != nil {
		return nil, eris.Wrapf(err, "ascii grid: %s", path)
	}
	return g, nil
}

func isHeaderKey(tok string) bool {
	c := tok[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func parseCell(tok string, i int) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "ascii grid: value %d", i)
	}
	return v, nil
}

func (h *asciiHeader) set(key, val string) error {
	if key == "ncols" || key == "nrows" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return eris.Wrapf(err, "ascii grid: %s", key)
		}
		if key == "ncols" {
			h.ncols = n
		} else {
			h.nrows = n
		}
		h.seen[key] = true
		return nil
	}

	v, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return eris.Wrapf(err, "ascii grid: %s", key)
	}
	switch key {
	case "xllcorner", "xllcenter":
		h.xll = v
		h.centre = h.centre || key == "xllcenter"
		h.seen["xll"] = true
	case "yllcorner", "yllcenter":
		h.yll = v
		h.centre = h.centre || key == "yllcenter"
		h.seen["yll"] = true
	case "cellsize":
		h.dx, h.dy = v, v
		h.seen["dx"], h.seen["dy"] = true, true
	case "dx":
		h.dx = v
		h.seen["dx"] = true
	case "dy":
		h.dy = v
		h.seen["dy"] = true
	case "nodata_value":
		h.noData = v
	default:
		return eris.Errorf("ascii grid: unknown header key %q", key)
	}
	return nil
}

func (h *asciiHeader) meta() (raster.Meta, error) {
	for _, k := range []string{"ncols", "nrows", "xll", "yll", "dx", "dy"} {
		if !h.seen[k] {
			return raster.Meta{}, eris.Errorf("ascii grid: header is missing %s", k)
		}
	}
	m := raster.Meta{
		Width:     h.ncols,
		Height:    h.nrows,
		CellSizeX: h.dx,
		CellSizeY: h.dy,
		OriginX:   h.xll,
		OriginY:   h.yll + float64(h.nrows)*h.dy,
		NoData:    h.noData,
	}
	if h.centre {
		m.OriginX -= h.dx / 2
		m.OriginY -= h.dy / 2
	}
	if err := m.Validate(); err != nil {
		return raster.Meta{}, eris.Wrap(err, "ascii grid")
	}
	return m, nil
}

// WriteASCII writes g as an ESRI ASCII grid. No-data cells are written as the
// grid's sentinel.
func WriteASCII(w io.Writer, g *raster.Grid) error {
	m := g.Meta()
	bw := bufio.NewWriter(w)

	ext := m.Extent()
	header := [][2]string{
		{"ncols", strconv.Itoa(m.Width)},
		{"nrows", strconv.Itoa(m.Height)},
		{"xllcorner", formatFloat(ext.MinX)},
		{"yllcorner", formatFloat(ext.MinY)},
	}
	if m.CellSizeX == m.CellSizeY {
		header = append(header, [2]string{"cellsize", formatFloat(m.CellSizeX)})
	} else {
		header = append(header,
			[2]string{"dx", formatFloat(m.CellSizeX)},
			[2]string{"dy", formatFloat(m.CellSizeY)},
		)
	}
	header = append(header, [2]string{"NODATA_value", formatFloat(m.NoData)})
	for _, kv := range header {
		if _, err := bw.WriteString(kv[0] + " " + kv[1] + "\n"); err != nil {
			return eris.Wrap(err, "ascii grid: write header")
		}
	}

	values := g.Values()
	buf := make([]byte, 0, 32)
	for r := 0; r < m.Height; r++ {
		for c := 0; c < m.Width; c++ {
			if c > 0 {
				buf = append(buf[:0], ' ')
			} else {
				buf = buf[:0]
			}
			buf = strconv.AppendFloat(buf, values[r*m.Width+c], 'g', -1, 64)
			if _, err := bw.Write(buf); err != nil {
				return eris.Wrap(err, "ascii grid: write values")
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return eris.Wrap(err, "ascii grid: write values")
		}
	}
	if err := bw.Flush(); err != nil {
		return eris.Wrap(err, "ascii grid: flush")
	}
	return nil
}

// WriteASCIIFile writes g to path, replacing any existing file.
func WriteASCIIFile(path string, g *raster.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "ascii grid: create %s", path)
	}
	if err := WriteASCII(f, g); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "ascii grid: close %s", path)
	}
	return nil
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
