// Package report summarizes categorical grids by class.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
	"github.com/samlevin11/TopographicPositionIndex/internal/rasterio"
)

// Unclassified names codes missing from the class table.
const Unclassified = "Unclassified"

// Row is one class of a Summary.
type Row struct {
	Code    int
	Name    string
	Cells   int
	Area    float64 // cells × cell area, in squared grid units
	Percent float64 // of valid cells
}

// Summary is the per-class breakdown of a categorical grid.
type Summary struct {
	Title      string
	ValidCells int
	Rows       []Row
}

// Summarize counts the valid cells of g per class code. Every code in classes
// gets a row, even with no cells; codes found in g but not in classes are
// listed as Unclassified. Rows are ordered by code.
func Summarize(title string, g *raster.Grid, classes map[int]string) Summary {
	counts := make(map[int]int, len(classes))
	for code := range classes {
		counts[code] = 0
	}
	for _, v := range g.ValidValues() {
		counts[int(math.Round(v))]++
	}

	meta := g.Meta()
	cellArea := meta.CellSizeX * meta.CellSizeY
	total := g.ValidCount()

	rows := make([]Row, 0, len(counts))
	for code, n := range counts {
		name, ok := classes[code]
		if !ok {
			name = Unclassified
		}
		row := Row{Code: code, Name: name, Cells: n, Area: float64(n) * cellArea}
		if total > 0 {
			row.Percent = 100 * float64(n) / float64(total)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })

	return Summary{Title: title, ValidCells: total, Rows: rows}
}

// ClassCounts converts the summary for a metadata sidecar.
func (s Summary) ClassCounts() []rasterio.ClassCount {
	out := make([]rasterio.ClassCount, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = rasterio.ClassCount{Code: r.Code, Name: r.Name, Cells: r.Cells, Area: r.Area, Percent: r.Percent}
	}
	return out
}

// WriteXLSX saves the summary as a one-sheet workbook.
func WriteXLSX(path string, s Summary) error {
	f := xlsx.NewFile()
	sheetName := s.Title
	if sheetName == "" {
		sheetName = "Classes"
	}
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Code", "Class", "Cells", "Area", "Percent"} {
		header.AddCell().SetString(h)
	}
	for _, r := range s.Rows {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.Code)
		row.AddCell().SetString(r.Name)
		row.AddCell().SetInt(r.Cells)
		row.AddCell().SetFloat(r.Area)
		row.AddCell().SetFloatWithFormat(r.Percent, "0.00")
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

// Print writes the summary as an aligned table with grouped thousands.
func Print(w io.Writer, s Summary) error {
	p := message.NewPrinter(language.English)

	if s.Title != "" {
		if _, err := p.Fprintf(w, "%s (%d valid cells)\n", s.Title, s.ValidCells); err != nil {
			return eris.Wrap(err, "report: print")
		}
	}
	if _, err := fmt.Fprintf(w, "%4s  %-40s %12s %16s %8s\n", "CODE", "CLASS", "CELLS", "AREA", "PCT"); err != nil {
		return eris.Wrap(err, "report: print")
	}
	for _, r := range s.Rows {
		if _, err := p.Fprintf(w, "%4d  %-40s %12d %16.0f %7.2f%%\n", r.Code, r.Name, r.Cells, r.Area, r.Percent); err != nil {
			return eris.Wrap(err, "report: print")
		}
	}
	return nil
}

// PrintStats writes raster statistics with grouped thousands.
func PrintStats(w io.Writer, name string, st raster.Stats) error {
	p := message.NewPrinter(language.English)
	if _, err := p.Fprintf(w, "%s: cells=%d mean=%.4f std=%.4f min=%.4f max=%.4f\n",
		name, st.Count, st.Mean, st.StdDev, st.Min, st.Max); err != nil {
		return eris.Wrap(err, "report: print stats")
	}
	return nil
}

// FromClassCounts rebuilds a summary from a recorded class breakdown.
func FromClassCounts(title string, validCells int, counts []rasterio.ClassCount) Summary {
	rows := make([]Row, len(counts))
	for i, c := range counts {
		rows[i] = Row{Code: c.Code, Name: c.Name, Cells: c.Cells, Area: c.Area, Percent: c.Percent}
	}
	return Summary{Title: title, ValidCells: validCells, Rows: rows}
}
