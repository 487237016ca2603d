package cmd

import (
	"github.com/urfave/cli"

	"github.com/df07/go-wavefront-raytracer/pkg/config"
)

// loadSettings reads the settings file, if any, and applies the flags that
// were set on the command line
func loadSettings(ctx *cli.Context, path string) (config.Settings, error) {
	settings := config.Default()
	if path != "" {
		var err error
		if settings, err = config.Load(path); err != nil {
			return config.Settings{}, err
		}
	}

	if ctx.IsSet("scene") {
		settings.Scene = ctx.String("scene")
	}
	if ctx.IsSet("width") {
		settings.Width = ctx.Int("width")
	}
	if ctx.IsSet("height") {
		settings.Height = ctx.Int("height")
	}
	if ctx.IsSet("renderer") {
		settings.Renderer = config.RendererKind(ctx.String("renderer"))
	}
	if ctx.IsSet("lighter") {
		settings.Lighter = config.LighterKind(ctx.String("lighter"))
	}
	if ctx.IsSet("min-samples") {
		settings.MinSamples = ctx.Int("min-samples")
	}
	if ctx.IsSet("spp") {
		settings.MaxSamples = ctx.Int("spp")
		settings.MinSamples = min(settings.MinSamples, settings.MaxSamples)
	}
	if ctx.IsSet("workers") {
		settings.Workers = ctx.Int("workers")
	}
	if ctx.IsSet("out") {
		settings.Output.Path = ctx.String("out")
		settings.Output.Format = ""
	}

	return settings, settings.Validate()
}
