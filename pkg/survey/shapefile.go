package survey

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"

	"surveyline/pkg/model"
)

// ReadShapefile reads survey points from a POINT or POINTZ shapefile.
// NUMBER and CODE attributes are used when present; without a NUMBER field
// the record index (1-based) is the point number. When layer is not empty
// and the table has a LAYER field, only rows on that layer are read.
func ReadShapefile(path, layer string) (model.Points, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer r.Close()

	numberIdx, codeIdx, layerIdx := -1, -1, -1
	for i, f := range r.Fields() {
		switch strings.ToUpper(f.String()) {
		case "NUMBER":
			numberIdx = i
		case "CODE":
			codeIdx = i
		case "LAYER":
			layerIdx = i
		}
	}
	attr := func(row, idx int) string {
		if idx < 0 {
			return ""
		}
		return strings.Trim(r.ReadAttribute(row, idx), " \x00")
	}

	var points []model.SurveyPoint
	for r.Next() {
		n, s := r.Shape()
		if layer != "" && layerIdx >= 0 && attr(n, layerIdx) != layer {
			continue
		}

		p := model.SurveyPoint{Number: n + 1, Code: attr(n, codeIdx)}
		switch g := s.(type) {
		case *shp.Null:
			continue
		case *shp.PointZ:
			p.X, p.Y, p.Z = g.X, g.Y, g.Z
		case *shp.Point:
			p.X, p.Y = g.X, g.Y
		default:
			slog.Debug("Skipping unsupported shape type", "type", fmt.Sprintf("%T", s), "row", n)
			continue
		}

		if numberIdx >= 0 {
			v := attr(n, numberIdx)
			nr, err := strconv.Atoi(v)
			if err != nil {
				return nil, &ParseError{Line: n + 1, Text: v, Err: fmt.Errorf("invalid point number %q", v)}
			}
			p.Number = nr
		}
		points = append(points, p)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shapes: %w", err)
	}

	if len(points) == 0 {
		return nil, model.ErrEmptyInput
	}
	return model.SortByNumber(points), nil
}
