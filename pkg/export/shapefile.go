package export

import (
	"fmt"
	"os"
	"strings"

	"surveyline/pkg/drawing"

	"github.com/jonas-p/go-shp"
)

// Shapefile writes two shapefiles next to each other: <base>_points.shp
// (POINTZ) and <base>_lines.shp (POLYLINE), each with its .shx and .dbf.
type Shapefile struct{}

const (
	fieldLayer  = "LAYER"
	fieldNumber = "NUMBER"
	fieldCode   = "CODE"
)

// Paths returns the .shp paths WriteFile produces for path.
func (Shapefile) Paths(path string) (points, lines string) {
	base := strings.TrimSuffix(path, ".shp")
	return base + "_points.shp", base + "_lines.shp"
}

// WriteFile implements Writer.
func (s Shapefile) WriteFile(path string, d *drawing.Drawing) error {
	pointsPath, linesPath := s.Paths(path)
	if err := writePoints(pointsPath, d); err != nil {
		return err
	}
	return writeLines(linesPath, d)
}

func writePoints(path string, d *drawing.Drawing) error {
	w, err := shp.Create(path, shp.POINTZ)
	if err != nil {
		return fmt.Errorf("failed to create shapefile: %w", err)
	}

	fields := []shp.Field{
		shp.StringField(fieldLayer, 32),
		shp.NumberField(fieldNumber, 10),
		shp.StringField(fieldCode, 32),
	}
	if err := w.SetFields(fields); err != nil {
		w.Close()
		return fmt.Errorf("failed to set fields: %w", err)
	}

	for _, p := range d.Points {
		n := int(w.Write(&shp.PointZ{X: p.At[0], Y: p.At[1], Z: p.At[2]}))
		if err := writeAttrs(w, n, p.Layer, p.Number, p.Code); err != nil {
			w.Close()
			return err
		}
	}
	w.Close()
	return fixDbfName(path)
}

func writeLines(path string, d *drawing.Drawing) error {
	w, err := shp.Create(path, shp.POLYLINE)
	if err != nil {
		return fmt.Errorf("failed to create shapefile: %w", err)
	}
	if err := w.SetFields([]shp.Field{shp.StringField(fieldLayer, 32)}); err != nil {
		w.Close()
		return fmt.Errorf("failed to set fields: %w", err)
	}

	for _, pl := range d.Polylines {
		part := make([]shp.Point, len(pl.Vertices))
		for i, v := range pl.Vertices {
			part[i] = shp.Point{X: v[0], Y: v[1]}
		}
		n := int(w.Write(shp.NewPolyLine([][]shp.Point{part})))
		if err := w.WriteAttribute(n, 0, truncate(pl.Layer, 32)); err != nil {
			w.Close()
			return fmt.Errorf("failed to write attribute: %w", err)
		}
	}
	w.Close()
	return fixDbfName(path)
}

func writeAttrs(w *shp.Writer, row int, layer string, number int, code string) error {
	if err := w.WriteAttribute(row, 0, truncate(layer, 32)); err != nil {
		return fmt.Errorf("failed to write layer attribute: %w", err)
	}
	if err := w.WriteAttribute(row, 1, number); err != nil {
		return fmt.Errorf("failed to write number attribute: %w", err)
	}
	if err := w.WriteAttribute(row, 2, truncate(code, 32)); err != nil {
		return fmt.Errorf("failed to write code attribute: %w", err)
	}
	return nil
}

// fixDbfName moves "<base>dbf" to "<base>.dbf". go-shp v0.1.1 creates the
// attribute table without the dot.
func fixDbfName(shpPath string) error {
	base := strings.TrimSuffix(shpPath, ".shp")
	if _, err := os.Stat(base + "dbf"); err != nil {
		return nil
	}
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return fmt.Errorf("failed to rename dbf: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
