package renderer

import (
	"image"
	"iter"
	"time"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// RenderStats contains statistics about a completed render
type RenderStats struct {
	Duration       time.Duration // Wall time from Start to completion
	Passes         int           // Number of sampling passes over the image
	TotalPixels    int           // Total number of pixels rendered
	TotalSamples   int           // Total number of samples taken
	AverageSamples float64       // Average samples per pixel
	MinSamplesUsed int           // Fewest samples taken by any pixel
	MaxSamplesUsed int           // Most samples taken by any pixel
}

// newRenderStats summarizes per-pixel sample counts
func newRenderStats(passes int, counts iter.Seq[int]) RenderStats {
	stats := RenderStats{Passes: passes, MinSamplesUsed: -1}
	for samples := range counts {
		stats.TotalPixels++
		stats.TotalSamples += samples
		if stats.MinSamplesUsed < 0 || samples < stats.MinSamplesUsed {
			stats.MinSamplesUsed = samples
		}
		stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, samples)
	}
	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	} else {
		stats.MinSamplesUsed = 0
	}
	return stats
}

// uniformStats describes a render that took the same number of samples at every pixel
func uniformStats(width, height, samples int) RenderStats {
	pixels := width * height
	return RenderStats{
		Passes:         samples,
		TotalPixels:    pixels,
		TotalSamples:   pixels * samples,
		AverageSamples: float64(samples),
		MinSamplesUsed: samples,
		MaxSamplesUsed: samples,
	}
}

// runLength is the number of recent pixel colors kept for convergence tests
const runLength = 10

// PixelStats tracks sampling statistics for a single pixel
type PixelStats struct {
	RadianceAccum core.Vec3 // Sum of all samples
	SampleCount   int       // Number of samples taken
	Done          bool      // The pixel has converged or reached the sample limit

	recent   [runLength]core.Vec3 // Displayed colors after the most recent samples
	recorded int
}

// AddSample adds a sample and returns the new mean
func (ps *PixelStats) AddSample(radiance core.Vec3) core.Vec3 {
	ps.RadianceAccum = ps.RadianceAccum.Add(radiance)
	ps.SampleCount++
	return ps.Mean()
}

// Mean returns the average of the samples taken so far
func (ps *PixelStats) Mean() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.RadianceAccum.Divide(float64(ps.SampleCount))
}

// Record remembers the color displayed after the latest sample
func (ps *PixelStats) Record(color core.Vec3) {
	ps.recent[ps.recorded%runLength] = color
	ps.recorded++
}

// Variance returns the mean squared distance of the recently recorded colors
// from the given color
func (ps *PixelStats) Variance(color core.Vec3) float64 {
	n := min(ps.recorded, runLength)
	if n == 0 {
		return 0
	}
	var variance float64
	for i := 0; i < n; i++ {
		variance += ps.recent[i].Subtract(color).LengthSquared()
	}
	return variance / float64(n)
}

// CalculateAverageLuminance returns the mean luminance of an image with
// channels scaled to [0, 1]
func CalculateAverageLuminance(img *image.RGBA) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			total += core.NewVec3(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255).Luminance()
		}
	}
	return total / float64(pixels)
}
