package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-wavefront-raytracer/pkg/integrator"
	"github.com/df07/go-wavefront-raytracer/pkg/renderer"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParseTOML(t *testing.T) {
	data := []byte(`
scene = "spheregrid"
width = 320
height = 200
renderer = "restir"
max_samples = 16

[restir]
radius = 4

[output]
path = "out/grid.tiff"
`)
	s, err := Parse(data, TOML)
	require.NoError(t, err)

	assert.Equal(t, "spheregrid", s.Scene)
	assert.Equal(t, 320, s.Width)
	assert.Equal(t, 200, s.Height)
	assert.Equal(t, RendererReSTIR, s.Renderer)
	assert.Equal(t, 4, s.ReSTIR.Radius)
	// Keys left out keep their defaults
	assert.Equal(t, Default().ReSTIR.Candidates, s.ReSTIR.Candidates)
	assert.Equal(t, Default().MinSamples, s.MinSamples)

	format, err := s.ImageFormat()
	require.NoError(t, err)
	assert.Equal(t, renderer.FormatTIFF, format)

	restir := s.ForReSTIR()
	assert.Equal(t, renderer.ReSTIRSettings{Width: 320, Height: 200, Samples: 16, IndirectSamples: 4, Radius: 4, Candidates: 8}, restir)
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
width: 64
height: 48
lighter: direct
lighting: false
irradiance:
  enabled: true
output:
  path: render.out
  format: bmp
`)
	s, err := Parse(data, YAML)
	require.NoError(t, err)

	assert.Equal(t, LighterDirect, s.Lighter)
	assert.False(t, s.Lighting)
	assert.True(t, s.Irradiance.Enabled)
	assert.Equal(t, Default().Irradiance.Samples, s.Irradiance.Samples)
	assert.Nil(t, s.NewLighter())

	format, err := s.ImageFormat()
	require.NoError(t, err)
	assert.Equal(t, renderer.FormatBMP, format)
}

func TestParseEmptyYAMLIsDefault(t *testing.T) {
	s, err := Parse(nil, YAML)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"zero width", "width = 0", ErrInvalidSize},
		{"renderer", `renderer = "photon"`, ErrUnknownRenderer},
		{"lighter", `lighter = "bdpt"`, ErrUnknownLighter},
		{"samples", "min_samples = 10\nmax_samples = 5", ErrInvalidSamples},
		{"threshold", "sample_threshold = -1.0", ErrInvalidValue},
		{"restir", "[restir]\ncandidates = 0", ErrInvalidValue},
		{"image", "[output]\npath = \"render.gif\"", renderer.ErrUnknownFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), TOML)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("widht = 10"), TOML)
	assert.Error(t, err)

	_, err = Parse([]byte("widht: 10"), YAML)
	assert.Error(t, err)

	_, err = Parse([]byte("width = 10"), Format("json"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestNewLighter(t *testing.T) {
	s := Default()

	s.Lighter = LighterDirect
	assert.IsType(t, &integrator.Direct{}, s.NewLighter())
	s.Lighter = LighterUniPath
	assert.IsType(t, &integrator.UniPath{}, s.NewLighter())
	s.Lighter = LighterIrradiance
	assert.IsType(t, &integrator.IrradianceCached{}, s.NewLighter())

	s.Lighter = LighterDirect
	s.Irradiance.Enabled = true
	assert.IsType(t, &integrator.IrradianceCached{}, s.NewLighter())
}

func TestEncodeRoundTrip(t *testing.T) {
	s := Default()
	s.Width = 123
	s.Renderer = RendererQueued
	s.Output.Format = "png"

	for _, format := range []Format{TOML, YAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, s.Encode(&buf, format))
			got, err := Parse(buf.Bytes(), format)
			require.NoError(t, err)
			assert.Equal(t, s, got)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "render.yml")
	require.NoError(t, os.WriteFile(path, []byte("renderer: queued\nmax_samples: 8\n"), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, renderer.QueuedSettings{Width: 400, Height: 400, Samples: 8}, s.ForQueued())

	_, err = Load(filepath.Join(dir, "render.ini"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("height = -3"), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrInvalidSize)
}
