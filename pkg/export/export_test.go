package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"surveyline/pkg/drawing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDrawing() *drawing.Drawing {
	return &drawing.Drawing{
		Points: []drawing.Point{
			{Layer: "POINTS", At: drawing.Vec3{10, 20, 100.5}, Number: 1, Code: "KRA"},
			{Layer: "POINTS", At: drawing.Vec3{15, 20, 101}, Number: 2, Code: "KRA"},
		},
		Texts: []drawing.Text{
			{Layer: "POINTS", At: drawing.Vec3{9.6, 20.1, 100.7}, Height: 0.1, Value: "KRA-1"},
		},
		Polylines: []drawing.Polyline{
			{Layer: "CROSS_SECTION", Vertices: orb.LineString{{10, 20}, {15, 20}}},
		},
	}
}

func TestFormats(t *testing.T) {
	for _, name := range Formats() {
		w, err := ForFormat(name)
		require.NoError(t, err, name)
		require.NotNil(t, w)
	}

	_, err := ForFormat("dwg")
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, err = EncoderFor("shp")
	assert.True(t, errors.Is(err, ErrUnknownFormat), "shapefiles cannot be streamed")
}

// dxfPairs splits DXF text into group-code/value pairs.
func dxfPairs(t *testing.T, out string) [][2]string {
	t.Helper()
	lines := strings.Split(strings.ReplaceAll(strings.TrimRight(out, "\r\n"), "\r\n", "\n"), "\n")
	require.Zero(t, len(lines)%2, "group codes and values must alternate")
	pairs := make([][2]string, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		pairs = append(pairs, [2]string{strings.TrimSpace(lines[i]), strings.TrimSpace(lines[i+1])})
	}
	return pairs
}

func countPairs(pairs [][2]string, code, value string) int {
	n := 0
	for _, p := range pairs {
		if p[0] == code && p[1] == value {
			n++
		}
	}
	return n
}

func TestDXF_Encode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DXF{}.Encode(&buf, sampleDrawing()))
	pairs := dxfPairs(t, buf.String())

	assert.Equal(t, [2]string{"0", "EOF"}, pairs[len(pairs)-1])
	assert.Equal(t, 1, countPairs(pairs, "2", "ENTITIES"))
	assert.Equal(t, 2, countPairs(pairs, "0", "POINT"))
	assert.Equal(t, 1, countPairs(pairs, "0", "TEXT"))
	assert.Equal(t, 1, countPairs(pairs, "0", "LWPOLYLINE"))

	// Both layers are declared in the table and used by entities.
	for _, layer := range []string{"POINTS", "CROSS_SECTION"} {
		assert.Equal(t, 1, countPairs(pairs, "2", layer), "layer table entry %s", layer)
		assert.Positive(t, countPairs(pairs, "8", layer), "entities on %s", layer)
	}
	assert.Equal(t, 1, countPairs(pairs, "1", "KRA-1"))

	var elevations []float64
	for _, p := range pairs {
		if p[0] == "30" {
			if v, err := strconv.ParseFloat(p[1], 64); err == nil {
				elevations = append(elevations, v)
			}
		}
	}
	assert.Contains(t, elevations, 100.5)
}

func TestDXF_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.dxf")
	require.NoError(t, DXF{}.WriteFile(path, sampleDrawing()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	pairs := dxfPairs(t, string(data))
	assert.Equal(t, 2, countPairs(pairs, "0", "POINT"))
	assert.Equal(t, 1, countPairs(pairs, "0", "LWPOLYLINE"))
}

func TestDXF_DefaultLayer(t *testing.T) {
	d := &drawing.Drawing{
		Points: []drawing.Point{{Layer: "", At: drawing.Vec3{1, 2, 3}}, {Layer: "0", At: drawing.Vec3{4, 5, 6}}},
	}
	var buf bytes.Buffer
	require.NoError(t, DXF{}.Encode(&buf, d))
	assert.Equal(t, 2, countPairs(dxfPairs(t, buf.String()), "0", "POINT"))
}

func TestGeoJSON_Encode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GeoJSON{}.Encode(&buf, sampleDrawing()))

	var fc geojson.FeatureCollection
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	require.Len(t, fc.Features, 3)

	assert.Equal(t, orb.Point{10, 20}, fc.Features[0].Geometry)
	assert.Equal(t, "KRA", fc.Features[0].Properties["code"])
	assert.Equal(t, 100.5, fc.Features[0].Properties["z"])
	assert.Equal(t, orb.LineString{{10, 20}, {15, 20}}, fc.Features[2].Geometry)
	assert.Equal(t, "CROSS_SECTION", fc.Features[2].Properties["layer"])
}

func TestEncoder_WriteFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"dxf", "geojson"} {
		enc, err := EncoderFor(name)
		require.NoError(t, err)

		path := filepath.Join(dir, "out"+enc.Extension())
		require.NoError(t, enc.WriteFile(path, sampleDrawing()))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestShapefile_WriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "survey.shp")

	s := Shapefile{}
	require.NoError(t, s.WriteFile(path, sampleDrawing()))
	pointsPath, linesPath := s.Paths(path)

	for _, p := range []string{pointsPath, linesPath} {
		base := strings.TrimSuffix(p, ".shp")
		for _, ext := range []string{".shp", ".shx", ".dbf"} {
			_, err := os.Stat(base + ext)
			assert.NoError(t, err, base+ext)
		}
	}

	r, err := shp.Open(pointsPath)
	require.NoError(t, err)
	defer r.Close()

	var numbers []string
	for r.Next() {
		n, shape := r.Shape()
		pz, ok := shape.(*shp.PointZ)
		require.True(t, ok, "expected PointZ, got %T", shape)
		if n == 0 {
			assert.Equal(t, 100.5, pz.Z)
		}
		numbers = append(numbers, strings.Trim(r.ReadAttribute(n, 1), " \x00"))
	}
	assert.Equal(t, []string{"1", "2"}, numbers)
}
