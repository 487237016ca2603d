package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/df07/go-wavefront-raytracer/pkg/config"
	"github.com/df07/go-wavefront-raytracer/pkg/gpu"
	"github.com/df07/go-wavefront-raytracer/pkg/renderer"
	"github.com/df07/go-wavefront-raytracer/pkg/scene"
)

// Render renders a frame and writes it to the output file
func Render(ctx *cli.Context) error {
	setupLogging(ctx)

	settings, err := loadSettings(ctx, ctx.String("config"))
	if err != nil {
		return err
	}
	stats, err := renderOnce(settings)
	if err != nil {
		return err
	}
	return displayFrameStats(ctx.App.Writer, settings, stats)
}

// renderOnce renders the configured scene and saves the image
func renderOnce(settings config.Settings) (renderer.RenderStats, error) {
	format, err := settings.ImageFormat()
	if err != nil {
		return renderer.RenderStats{}, err
	}

	s, err := scene.Build(settings.Scene)
	if err != nil {
		return renderer.RenderStats{}, err
	}

	r, release, err := newRenderer(settings, s)
	if err != nil {
		return renderer.RenderStats{}, err
	}
	defer release()

	logger.Noticef("rendering %s at %dx%d with the %s renderer", settings.Scene, settings.Width, settings.Height, settings.Renderer)
	if err := wait(r); err != nil {
		return renderer.RenderStats{}, err
	}

	if err := os.MkdirAll(filepath.Dir(settings.Output.Path), 0o755); err != nil {
		return renderer.RenderStats{}, err
	}
	f, err := os.Create(settings.Output.Path)
	if err != nil {
		return renderer.RenderStats{}, err
	}
	if err := renderer.WriteImage(f, r.Framebuffer(), format); err != nil {
		f.Close()
		return renderer.RenderStats{}, fmt.Errorf("writing %s: %w", settings.Output.Path, err)
	}
	if err := f.Close(); err != nil {
		return renderer.RenderStats{}, err
	}
	logger.Infof("saved %s", settings.Output.Path)
	return r.Stats(), nil
}

// newRenderer creates the configured renderer and a function releasing it
func newRenderer(settings config.Settings, s *scene.Scene) (renderer.Renderer, func(), error) {
	var (
		r   renderer.Renderer
		err error
	)
	switch settings.Renderer {
	case config.RendererSimple:
		r, err = renderer.NewSimple(s, settings.ForSimple(), settings.NewLighter())
	case config.RendererQueued:
		r, err = renderer.NewQueued(s, settings.ForQueued())
	case config.RendererReSTIR:
		r, err = renderer.NewReSTIR(s, settings.ForReSTIR())
	case config.RendererGPU:
		device := gpu.NewHostDevice(settings.Workers)
		g, err := gpu.NewRenderer(device, s, settings.ForQueued())
		if err != nil {
			device.Close()
			return nil, nil, err
		}
		return g, func() {
			g.Close()
			device.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownRenderer, settings.Renderer)
	}
	if err != nil {
		return nil, nil, err
	}
	return r, r.Close, nil
}

// doneListener turns the renderer's callbacks into a channel
type doneListener chan error

func (l doneListener) OnRendererDone(seconds float64) { l <- nil }
func (l doneListener) OnRendererError(err error)      { l <- err }

// wait runs a render to completion
func wait(r renderer.Renderer) error {
	done := make(doneListener, 1)
	if err := r.Start(done); err != nil {
		return err
	}
	return <-done
}

func displayFrameStats(w io.Writer, settings config.Settings, stats renderer.RenderStats) error {
	if w == nil {
		return errors.New("no output writer")
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Scene", "Renderer", "Size", "Passes", "Samples", "Min spp", "Avg spp", "Max spp"})
	table.Append([]string{
		settings.Scene,
		string(settings.Renderer),
		fmt.Sprintf("%dx%d", settings.Width, settings.Height),
		fmt.Sprintf("%d", stats.Passes),
		fmt.Sprintf("%d", stats.TotalSamples),
		fmt.Sprintf("%d", stats.MinSamplesUsed),
		fmt.Sprintf("%.1f", stats.AverageSamples),
		fmt.Sprintf("%d", stats.MaxSamplesUsed),
	})
	table.SetFooter([]string{"", "", "", "", "", "", "TOTAL", stats.Duration.String()})
	table.Render()

	_, err := fmt.Fprintf(w, "frame statistics\n%s", buf.String())
	return err
}
