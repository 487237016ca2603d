package cmd

import (
	"github.com/urfave/cli"

	"github.com/df07/go-wavefront-raytracer/pkg/config"
)

// renderFlags are shared by the render and watch commands. Any flag that is
// set overrides the value read from the settings file.
func renderFlags() []cli.Flag {
	d := config.Default()
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "settings file (.toml, .yaml or .yml)",
		},
		cli.StringFlag{
			Name:  "scene, s",
			Value: d.Scene,
			Usage: "built-in scene to render",
		},
		cli.IntFlag{
			Name:  "width",
			Value: d.Width,
			Usage: "image width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: d.Height,
			Usage: "image height",
		},
		cli.StringFlag{
			Name:  "renderer, r",
			Value: string(d.Renderer),
			Usage: "renderer: simple, queued, restir or gpu",
		},
		cli.StringFlag{
			Name:  "lighter, l",
			Value: string(d.Lighter),
			Usage: "lighter used by the simple renderer: direct, unipath or irradiance",
		},
		cli.IntFlag{
			Name:  "min-samples",
			Value: d.MinSamples,
			Usage: "samples per pixel before convergence is tested",
		},
		cli.IntFlag{
			Name:  "spp",
			Value: d.MaxSamples,
			Usage: "samples per pixel",
		},
		cli.IntFlag{
			Name:  "workers, w",
			Usage: "worker goroutines, 0 for one per CPU",
		},
		cli.StringFlag{
			Name:  "out, o",
			Value: d.Output.Path,
			Usage: "image filename for the rendered frame",
		},
	}
}

// NewApp creates the command line application
func NewApp() *cli.App {
	// The default version flag also claims -v
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "wavefront"
	app.Usage = "render scenes with path tracing"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a scene to an image file",
			Description: `
Render a built-in scene once and write the image. Settings come from the
file given with --config, then from flags.`,
			Flags:  renderFlags(),
			Action: Render,
		},
		{
			Name:   "scenes",
			Usage:  "list built-in scenes",
			Action: ListScenes,
		},
		{
			Name:      "watch",
			Usage:     "re-render whenever the settings file changes",
			ArgsUsage: "settings.toml",
			Flags:     renderFlags(),
			Action:    Watch,
		},
	}
	return app
}
