package renderer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

func TestReservoirFirstSampleIsTaken(t *testing.T) {
	sampler := core.NewSeededRandomSampler(1)
	var res Reservoir[int]

	res.AddSample(7, 2, 0.5, sampler)
	assert.Equal(t, 7, res.Sample)
	assert.Equal(t, 1, res.M)
	assert.Equal(t, 2.0, res.Q)
	// W is 1/pdf for a single candidate
	assert.InDelta(t, 2.0, res.W, 1e-12)
}

func TestReservoirIgnoresEmptyInputs(t *testing.T) {
	sampler := core.NewSeededRandomSampler(1)
	var res Reservoir[int]
	res.AddSample(1, 3, 1, sampler)

	res.AddSample(2, 5, 0, sampler)
	res.AddReservoir(Reservoir[int]{Sample: 3}, 4, 1, sampler)
	assert.Equal(t, 1, res.Sample)
	assert.Equal(t, 1, res.M)
}

func TestReservoirZeroTargetHasZeroWeight(t *testing.T) {
	sampler := core.NewSeededRandomSampler(1)
	var res Reservoir[int]

	res.AddSample(1, 0, 0.5, sampler)
	assert.Equal(t, 0.0, res.W)
	assert.False(t, math.IsNaN(res.W))

	// A useful candidate replaces a worthless one
	res.AddSample(2, 1, 0.5, sampler)
	assert.Equal(t, 2, res.Sample)
	assert.Equal(t, 2, res.M)
	assert.InDelta(t, 1.0, res.W, 1e-12)
}

func TestReservoirWeightInvariant(t *testing.T) {
	sampler := core.NewSeededRandomSampler(3)

	for trial := 0; trial < 200; trial++ {
		var res Reservoir[int]
		for step := 0; step < 20; step++ {
			var w0, w1 float64
			before := res
			if sampler.Get1D() < 0.5 {
				q := sampler.Get1D() * 4
				pdf := 0.1 + sampler.Get1D()
				res.AddSample(step, q, pdf, sampler)
				total := float64(before.M + 1)
				w0 = float64(before.M) / total * before.Q * before.W
				w1 = q / pdf / total
			} else {
				other := Reservoir[int]{Sample: step, W: sampler.Get1D() * 3, M: 1 + int(sampler.Get1D()*5), Q: sampler.Get1D()}
				q := sampler.Get1D() * 2
				jacobian := 0.5 + sampler.Get1D()
				res.AddReservoir(other, q, jacobian, sampler)
				total := float64(before.M + other.M)
				w0 = float64(before.M) / total * before.Q * before.W
				w1 = float64(other.M) / total * q * other.W * jacobian
			}

			require.InDelta(t, w0+w1, res.W*res.Q, 1e-9*(1+w0+w1), "trial %d step %d", trial, step)
		}
	}
}

func TestReservoirResamplingIsUnbiased(t *testing.T) {
	// Resample uniform candidates on [0, 1] toward q(x) = x; f(held)·W then
	// estimates the integral of f
	sampler := core.NewSeededRandomSampler(11)
	f := func(x float64) float64 { return x * x }

	const trials = 40000
	total := 0.0
	for i := 0; i < trials; i++ {
		var res Reservoir[float64]
		for c := 0; c < 8; c++ {
			x := sampler.Get1D()
			res.AddSample(x, x, 1, sampler)
		}
		total += f(res.Sample) * res.W
	}

	assert.InEpsilon(t, 1.0/3, total/trials, 0.02)
}

func TestReservoirMergeMatchesStream(t *testing.T) {
	// Merging two reservoirs of the same target estimates the same integral
	sampler := core.NewSeededRandomSampler(12)

	const trials = 40000
	total := 0.0
	for i := 0; i < trials; i++ {
		var a, b, merged Reservoir[float64]
		for c := 0; c < 4; c++ {
			x := sampler.Get1D()
			a.AddSample(x, x, 1, sampler)
			y := sampler.Get1D()
			b.AddSample(y, y, 1, sampler)
		}
		merged.AddReservoir(a, a.Q, 1, sampler)
		merged.AddReservoir(b, b.Q, 1, sampler)
		require.Equal(t, 8, merged.M)
		total += merged.Sample * merged.W
	}

	assert.InEpsilon(t, 0.5, total/trials, 0.02)
}
