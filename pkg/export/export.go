// Package export writes drawings to CAD and GIS file formats.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"surveyline/pkg/drawing"
)

// ErrUnknownFormat is returned for unsupported format names.
var ErrUnknownFormat = errors.New("unknown export format")

// Writer writes a drawing to the file system.
type Writer interface {
	WriteFile(path string, d *drawing.Drawing) error
}

// Encoder streams a drawing to a single output.
type Encoder interface {
	Writer
	Encode(w io.Writer, d *drawing.Drawing) error
	ContentType() string
	Extension() string
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{"dxf", "geojson", "shp"}
}

// ForFormat returns the file writer for a format name.
func ForFormat(name string) (Writer, error) {
	switch strings.ToLower(name) {
	case "shp", "shapefile":
		return Shapefile{}, nil
	default:
		return EncoderFor(name)
	}
}

// EncoderFor returns the streaming encoder for a format name.
// Shapefiles span several files and have no encoder.
func EncoderFor(name string) (Encoder, error) {
	switch strings.ToLower(name) {
	case "dxf":
		return DXF{}, nil
	case "geojson", "json":
		return GeoJSON{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// writeFile encodes d into path using enc.
func writeFile(enc Encoder, path string, d *drawing.Drawing) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := enc.Encode(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
