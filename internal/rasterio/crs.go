package rasterio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/samlevin11/TopographicPositionIndex/internal/focal"
)

// CRS is what the .prj sidecar says about a grid's coordinate system.
type CRS struct {
	Known      bool   `json:"known" yaml:"known"`
	Geographic bool   `json:"geographic" yaml:"geographic"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	LinearUnit string `json:"linear_unit,omitempty" yaml:"linear_unit,omitempty"`
}

// DescribeCRS reads the .prj file next to rasterPath. A missing sidecar is not
// an error; the returned CRS is simply not Known.
func DescribeCRS(rasterPath string) (CRS, error) {
	prj := strings.TrimSuffix(rasterPath, filepath.Ext(rasterPath)) + ".prj"
	b, err := os.ReadFile(prj)
	if errors.Is(err, fs.ErrNotExist) {
		return CRS{}, nil
	}
	if err != nil {
		return CRS{}, eris.Wrapf(err, "rasterio: read %s", prj)
	}
	return ParseWKT(string(b)), nil
}

// ParseWKT inspects the root of a WKT coordinate system definition.
func ParseWKT(wkt string) CRS {
	wkt = strings.TrimSpace(wkt)
	open := strings.IndexByte(wkt, '[')
	if open < 0 {
		return CRS{}
	}

	crs := CRS{Known: true, Name: firstQuoted(wkt[open:])}
	switch strings.ToUpper(wkt[:open]) {
	case "GEOGCS", "GEOGCRS", "GEODCRS":
		crs.Geographic = true
	case "PROJCS", "PROJCRS":
		crs.LinearUnit = topLevelUnit(wkt)
	default:
		return CRS{}
	}
	return crs
}

// CheckUnits returns a warning when radii in map units make no sense for crs,
// or an empty string when they do. Cell units are always accepted.
func CheckUnits(crs CRS, unit focal.Unit) string {
	if unit != focal.UnitGround {
		return ""
	}
	switch {
	case !crs.Known:
		return "MAP units specified but the coordinate system is unknown; radii are assumed to be in cell size units"
	case crs.Geographic:
		return "MAP units specified with geographic coordinate system. Use CELL units."
	}
	return ""
}

// UnitLabel names the unit radii are expressed in, for log messages.
func UnitLabel(crs CRS, unit focal.Unit) string {
	if unit == focal.UnitCell {
		return "CELL"
	}
	if crs.LinearUnit != "" {
		return strings.ToLower(crs.LinearUnit)
	}
	return "map units"
}

func firstQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// topLevelUnit returns the name in the UNIT (or LENGTHUNIT/ANGLEUNIT) node
// that is a direct child of the root, ignoring units nested in GEOGCS or
// similar sub-nodes.
func topLevelUnit(wkt string) string {
	depth := 0
	inQuote := false
	for i := 0; i < len(wkt); i++ {
		switch c := wkt[i]; {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[' || c == '(':
			depth++
			if depth == 2 {
				kw := keywordBefore(wkt, i)
				if kw == "UNIT" || kw == "LENGTHUNIT" || kw == "ANGLEUNIT" {
					return firstQuoted(wkt[i:])
				}
			}
		case c == ']' || c == ')':
			depth--
		}
	}
	return ""
}

func keywordBefore(s string, i int) string {
	j := i
	for j > 0 {
		c := s[j-1]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
			j--
			continue
		}
		break
	}
	return strings.ToUpper(s[j:i])
}
