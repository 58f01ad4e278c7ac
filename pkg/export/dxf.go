package export

import (
	"fmt"
	"io"
	"os"

	"github.com/yofu/dxf"

	"surveyline/pkg/drawing"
)

// defaultLayer always exists in a new DXF drawing.
const defaultLayer = "0"

// DXF writes ASCII DXF: one layer per drawing layer, POINT and TEXT
// entities, and LWPOLYLINE for lines.
type DXF struct{}

func (DXF) ContentType() string { return "application/dxf" }
func (DXF) Extension() string   { return ".dxf" }

// WriteFile implements Writer.
func (DXF) WriteFile(path string, d *drawing.Drawing) error {
	doc, err := buildDXF(d)
	if err != nil {
		return err
	}
	if err := doc.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// Encode implements Encoder. The dxf package only saves to files, so the
// document goes through a temporary file.
func (e DXF) Encode(w io.Writer, d *drawing.Drawing) error {
	tmp, err := os.CreateTemp("", "surveyline-*.dxf")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := e.WriteFile(path, d); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func buildDXF(d *drawing.Drawing) (*dxf.Drawing, error) {
	doc := dxf.NewDrawing()
	for _, l := range d.Layers() {
		if layerName(l) == defaultLayer {
			continue
		}
		if _, err := doc.AddLayer(l, dxf.DefaultColor, dxf.DefaultLineType, false); err != nil {
			return nil, fmt.Errorf("layer %q: %w", l, err)
		}
	}

	// use switches the current layer only when it changes; builders emit
	// long same-layer stretches.
	current := defaultLayer
	use := func(l string) error {
		l = layerName(l)
		if l == current {
			return nil
		}
		if err := doc.ChangeLayer(l); err != nil {
			return fmt.Errorf("layer %q: %w", l, err)
		}
		current = l
		return nil
	}

	for _, p := range d.Points {
		if err := use(p.Layer); err != nil {
			return nil, err
		}
		if _, err := doc.Point(p.At[0], p.At[1], p.At[2]); err != nil {
			return nil, err
		}
	}
	for _, t := range d.Texts {
		if err := use(t.Layer); err != nil {
			return nil, err
		}
		if _, err := doc.Text(t.Value, t.At[0], t.At[1], t.At[2], t.Height); err != nil {
			return nil, err
		}
	}
	for _, pl := range d.Polylines {
		if len(pl.Vertices) < 2 {
			continue
		}
		if err := use(pl.Layer); err != nil {
			return nil, err
		}
		verts := make([][]float64, len(pl.Vertices))
		for i, v := range pl.Vertices {
			verts[i] = []float64{v[0], v[1]}
		}
		if _, err := doc.LwPolyline(false, verts...); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func layerName(l string) string {
	if l == "" {
		return defaultLayer
	}
	return l
}
