// Package drawing builds a renderer-neutral list of drafting entities from
// survey results. Exporters in pkg/export turn a Drawing into files.
package drawing

import (
	"strconv"

	"surveyline/pkg/config"
	"surveyline/pkg/model"

	"github.com/paulmach/orb"
)

// Vec3 is a drawing-space position.
type Vec3 [3]float64

// Point is a point entity.
type Point struct {
	Layer  string
	At     Vec3
	Number int
	Code   string
}

// Text is a single-line label.
type Text struct {
	Layer  string
	At     Vec3
	Height float64
	Value  string
}

// Polyline is an open 2D polyline.
type Polyline struct {
	Layer    string
	Vertices orb.LineString
}

// Drawing is an ordered collection of entities.
type Drawing struct {
	Points    []Point
	Texts     []Text
	Polylines []Polyline
}

// Style controls label placement and layer names.
type Style struct {
	TextHeight  float64
	NumberLabel Vec3
	CodeLabel   Vec3
	Layers      config.LayerConfig
}

// NewStyle derives a Style from the drawing configuration.
func NewStyle(cfg config.DrawingConfig) Style {
	return Style{
		TextHeight:  cfg.TextHeight,
		NumberLabel: Vec3{cfg.NumberLabel.DX, cfg.NumberLabel.DY, cfg.NumberLabel.DZ},
		CodeLabel:   Vec3{cfg.CodeLabel.DX, cfg.CodeLabel.DY, cfg.CodeLabel.DZ},
		Layers:      cfg.Layers,
	}
}

// Layers returns the distinct layer names in first-use order.
func (d *Drawing) Layers() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(l string) {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	for _, p := range d.Points {
		add(p.Layer)
	}
	for _, t := range d.Texts {
		add(t.Layer)
	}
	for _, pl := range d.Polylines {
		add(pl.Layer)
	}
	return out
}

// AddSurveyPoints adds a 3D point per survey point plus its number and code labels.
func (d *Drawing) AddSurveyPoints(points model.Points, s Style) {
	for _, p := range points {
		at := Vec3{p.X, p.Y, p.Z}
		d.Points = append(d.Points, Point{Layer: s.Layers.Points, At: at, Number: p.Number, Code: p.Code})
		d.addLabels(s.Layers.Points, at, p, s, false)
	}
}

// AddRuns adds one polyline per run on the given layer.
func (d *Drawing) AddRuns(runs []model.PathRun, layer string) {
	for _, r := range runs {
		if len(r) < 2 {
			continue
		}
		d.Polylines = append(d.Polylines, Polyline{Layer: layer, Vertices: r.LineString()})
	}
}

// AddProfile draws the profile shifted by (dx, dy): one line per link, one
// point per profile vertex and the survey labels at each vertex (z = 0).
// points and profile must have the same length and order.
func (d *Drawing) AddProfile(points model.Points, profile []model.ProfilePoint, links []model.ProfileLink, dx, dy float64, s Style) {
	for _, l := range links {
		d.Polylines = append(d.Polylines, Polyline{
			Layer: s.Layers.Profile,
			Vertices: orb.LineString{
				{l.From.Distance + dx, l.From.Elevation + dy},
				{l.To.Distance + dx, l.To.Elevation + dy},
			},
		})
	}

	for i, pp := range profile {
		at := Vec3{pp.Distance + dx, pp.Elevation + dy, 0}
		code := ""
		if i < len(points) {
			code = points[i].Code
		}
		d.Points = append(d.Points, Point{Layer: s.Layers.ProfilePoints, At: at, Number: pp.Number, Code: code})

		if i < len(points) {
			d.addLabels(s.Layers.ProfilePoints, at, points[i], s, true)
		}
	}
}

// addLabels places the number and code labels around at. Flat labels
// (profile view) keep z at 0.
func (d *Drawing) addLabels(layer string, at Vec3, p model.SurveyPoint, s Style, flat bool) {
	place := func(off Vec3) Vec3 {
		v := Vec3{at[0] + off[0], at[1] + off[1], at[2] + off[2]}
		if flat {
			v[2] = 0
		}
		return v
	}
	d.Texts = append(d.Texts,
		Text{Layer: layer, At: place(s.NumberLabel), Height: s.TextHeight, Value: strconv.Itoa(p.Number)},
		Text{Layer: layer, At: place(s.CodeLabel), Height: s.TextHeight, Value: p.Code},
	)
}
