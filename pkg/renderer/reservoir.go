package renderer

import "github.com/df07/go-wavefront-raytracer/pkg/core"

// Reservoir holds one sample chosen by weighted reservoir sampling from a
// stream of candidates.
//
// M counts the candidates seen, Q is the target density of the held sample
// and W its unbiased contribution weight: W·Q equals the M-weighted sum of
// the candidates' weights.
type Reservoir[T any] struct {
	Sample T
	W      float64
	M      int
	Q      float64
}

// AddSample offers a candidate drawn with density pdf and having target density q
func (r *Reservoir[T]) AddSample(sample T, q, pdf float64, sampler core.Sampler) {
	if pdf <= 0 {
		return
	}
	r.combine(sample, q, 1/pdf, 1, 1, sampler)
}

// AddReservoir merges another reservoir whose held sample has target density
// q at this reservoir's domain. jacobian corrects for the change of domain.
func (r *Reservoir[T]) AddReservoir(other Reservoir[T], q, jacobian float64, sampler core.Sampler) {
	r.combine(other.Sample, q, other.W, other.M, jacobian, sampler)
}

func (r *Reservoir[T]) combine(sample T, q, w float64, m int, jacobian float64, sampler core.Sampler) {
	if m <= 0 {
		return
	}

	total := float64(r.M + m)
	w0 := float64(r.M) / total * r.Q * r.W
	w1 := float64(m) / total * q * w * jacobian
	sum := w0 + w1

	if w0 == 0 || sampler.Get1D()*sum < w1 {
		r.Sample = sample
		r.Q = q
	}

	r.M += m
	if r.Q > 0 {
		r.W = sum / r.Q
	} else {
		r.W = 0
	}
}

// Clear empties the reservoir
func (r *Reservoir[T]) Clear() {
	*r = Reservoir[T]{}
}
