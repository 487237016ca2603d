// Package config reads render settings from TOML or YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-wavefront-raytracer/pkg/integrator"
	"github.com/df07/go-wavefront-raytracer/pkg/renderer"
)

var (
	ErrUnknownFormat   = errors.New("config: unknown settings format")
	ErrUnknownRenderer = errors.New("config: unknown renderer")
	ErrUnknownLighter  = errors.New("config: unknown lighter")
	ErrInvalidSize     = errors.New("config: width and height must be positive")
	ErrInvalidSamples  = errors.New("config: invalid sample counts")
	ErrInvalidValue    = errors.New("config: invalid value")
)

// Format is the encoding of a settings file
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// RendererKind selects the renderer
type RendererKind string

const (
	RendererSimple RendererKind = "simple"
	RendererQueued RendererKind = "queued"
	RendererReSTIR RendererKind = "restir"
	RendererGPU    RendererKind = "gpu"
)

// LighterKind selects the lighter used by the simple renderer
type LighterKind string

const (
	LighterDirect     LighterKind = "direct"
	LighterUniPath    LighterKind = "unipath"
	LighterIrradiance LighterKind = "irradiance"
)

// IrradianceSettings configures the irradiance cache
type IrradianceSettings struct {
	Enabled   bool    `toml:"enabled" yaml:"enabled"`
	Samples   int     `toml:"samples" yaml:"samples"`
	Threshold float64 `toml:"threshold" yaml:"threshold"`
}

// ReSTIRSettings configures reservoir resampling
type ReSTIRSettings struct {
	IndirectSamples int `toml:"indirect_samples" yaml:"indirect_samples"`
	Radius          int `toml:"radius" yaml:"radius"`
	Candidates      int `toml:"candidates" yaml:"candidates"`
}

// OutputSettings names the image a render is written to. An empty format
// is taken from the path's extension.
type OutputSettings struct {
	Path   string `toml:"path" yaml:"path"`
	Format string `toml:"format" yaml:"format"`
}

// Settings holds everything needed to set up a render. Renderers with a
// fixed sample count take MaxSamples samples per pixel.
type Settings struct {
	Scene           string       `toml:"scene" yaml:"scene"`
	Width           int          `toml:"width" yaml:"width"`
	Height          int          `toml:"height" yaml:"height"`
	Renderer        RendererKind `toml:"renderer" yaml:"renderer"`
	Lighter         LighterKind  `toml:"lighter" yaml:"lighter"`
	Lighting        bool         `toml:"lighting" yaml:"lighting"`
	MinSamples      int          `toml:"min_samples" yaml:"min_samples"`
	MaxSamples      int          `toml:"max_samples" yaml:"max_samples"`
	SampleThreshold float64      `toml:"sample_threshold" yaml:"sample_threshold"`
	Workers         int          `toml:"workers" yaml:"workers"`

	Irradiance IrradianceSettings `toml:"irradiance" yaml:"irradiance"`
	ReSTIR     ReSTIRSettings     `toml:"restir" yaml:"restir"`
	Output     OutputSettings     `toml:"output" yaml:"output"`
}

// Default returns the settings used for anything a file leaves out
func Default() Settings {
	return Settings{
		Scene:           "cornell",
		Width:           400,
		Height:          400,
		Renderer:        RendererSimple,
		Lighter:         LighterUniPath,
		Lighting:        true,
		MinSamples:      4,
		MaxSamples:      64,
		SampleThreshold: 0.01,
		Irradiance: IrradianceSettings{
			Samples:   64,
			Threshold: 0.3,
		},
		ReSTIR: ReSTIRSettings{
			IndirectSamples: 4,
			Radius:          10,
			Candidates:      8,
		},
		Output: OutputSettings{Path: "render.png"},
	}
}

// FormatForPath picks the settings format from a file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// Load reads and validates a settings file
func Load(path string) (Settings, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return Settings{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes settings on top of the defaults and validates them.
// Unknown keys are rejected.
func Parse(data []byte, format Format) (Settings, error) {
	s := Default()
	switch format {
	case TOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return Settings{}, fmt.Errorf("config: decoding toml: %w", err)
		}
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return Settings{}, fmt.Errorf("config: decoding yaml: %w", err)
		}
	default:
		return Settings{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Encode writes the settings in the given format
func (s Settings) Encode(w io.Writer, format Format) error {
	switch format {
	case TOML:
		return toml.NewEncoder(w).Encode(s)
	case YAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Validate checks that the settings describe a render that can run
func (s Settings) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, s.Width, s.Height)
	}

	switch s.Renderer {
	case RendererSimple, RendererQueued, RendererReSTIR, RendererGPU:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRenderer, s.Renderer)
	}
	switch s.Lighter {
	case LighterDirect, LighterUniPath, LighterIrradiance:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLighter, s.Lighter)
	}

	if s.MaxSamples < 1 || s.MinSamples < 1 || s.MinSamples > s.MaxSamples {
		return fmt.Errorf("%w: min %d, max %d", ErrInvalidSamples, s.MinSamples, s.MaxSamples)
	}
	if s.SampleThreshold < 0 {
		return fmt.Errorf("%w: sample_threshold %v", ErrInvalidValue, s.SampleThreshold)
	}
	if s.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidValue, s.Workers)
	}
	if s.Irradiance.Samples < 1 || s.Irradiance.Threshold <= 0 {
		return fmt.Errorf("%w: irradiance samples %d, threshold %v", ErrInvalidValue, s.Irradiance.Samples, s.Irradiance.Threshold)
	}
	if s.ReSTIR.IndirectSamples < 1 || s.ReSTIR.Radius < 0 || s.ReSTIR.Candidates < 1 {
		return fmt.Errorf("%w: restir indirect_samples %d, radius %d, candidates %d",
			ErrInvalidValue, s.ReSTIR.IndirectSamples, s.ReSTIR.Radius, s.ReSTIR.Candidates)
	}

	if _, err := s.ImageFormat(); err != nil {
		return fmt.Errorf("config: output: %w", err)
	}
	return nil
}

// ImageFormat returns the format the output image is written in
func (s Settings) ImageFormat() (renderer.ImageFormat, error) {
	if s.Output.Format != "" {
		return renderer.ParseImageFormat(s.Output.Format)
	}
	return renderer.FormatForPath(s.Output.Path)
}

// NewLighter creates the lighter the simple renderer samples with. It is
// nil when lighting is disabled, which renders albedo only.
func (s Settings) NewLighter() integrator.Lighter {
	if !s.Lighting {
		return nil
	}
	if s.Irradiance.Enabled || s.Lighter == LighterIrradiance {
		return integrator.NewIrradianceCached(integrator.IrradianceCachedSettings{
			IndirectSamples: s.Irradiance.Samples,
			CacheThreshold:  s.Irradiance.Threshold,
		})
	}
	if s.Lighter == LighterDirect {
		return integrator.NewDirect()
	}
	return integrator.NewUniPath()
}

// ForSimple converts to raster renderer settings
func (s Settings) ForSimple() renderer.SimpleSettings {
	return renderer.SimpleSettings{
		Width:           s.Width,
		Height:          s.Height,
		MinSamples:      s.MinSamples,
		MaxSamples:      s.MaxSamples,
		SampleThreshold: s.SampleThreshold,
		Workers:         s.Workers,
	}
}

// ForQueued converts to wavefront renderer settings, also used by the gpu renderer
func (s Settings) ForQueued() renderer.QueuedSettings {
	return renderer.QueuedSettings{
		Width:   s.Width,
		Height:  s.Height,
		Samples: s.MaxSamples,
		Workers: s.Workers,
	}
}

func (s Settings) ForReSTIR() renderer.ReSTIRSettings {
	return renderer.ReSTIRSettings{
		Width:           s.Width,
		Height:          s.Height,
		Samples:         s.MaxSamples,
		IndirectSamples: s.ReSTIR.IndirectSamples,
		Radius:          s.ReSTIR.Radius,
		Candidates:      s.ReSTIR.Candidates,
		Workers:         s.Workers,
	}
}
