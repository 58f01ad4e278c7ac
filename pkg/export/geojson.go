package export

import (
	"encoding/json"
	"fmt"
	"io"

	"surveyline/pkg/drawing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON writes a FeatureCollection. Coordinates are survey-grid values,
// not WGS84; consumers must treat them as a local CRS. Labels are not
// exported: number and code are feature properties instead.
type GeoJSON struct{}

func (GeoJSON) ContentType() string { return "application/geo+json" }
func (GeoJSON) Extension() string   { return ".geojson" }

// WriteFile implements Writer.
func (e GeoJSON) WriteFile(path string, d *drawing.Drawing) error {
	return writeFile(e, path, d)
}

// FeatureCollection converts a drawing into GeoJSON features.
func FeatureCollection(d *drawing.Drawing) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, p := range d.Points {
		f := geojson.NewFeature(orb.Point{p.At[0], p.At[1]})
		f.Properties["layer"] = p.Layer
		f.Properties["number"] = p.Number
		f.Properties["code"] = p.Code
		f.Properties["z"] = p.At[2]
		fc.Append(f)
	}
	for _, pl := range d.Polylines {
		f := geojson.NewFeature(pl.Vertices)
		f.Properties["layer"] = pl.Layer
		fc.Append(f)
	}
	return fc
}

// Encode implements Encoder.
func (GeoJSON) Encode(w io.Writer, d *drawing.Drawing) error {
	data, err := json.MarshalIndent(FeatureCollection(d), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}
	_, err = w.Write(data)
	return err
}
