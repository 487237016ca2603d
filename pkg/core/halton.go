package core

import (
	"math/rand"
	"sync"
)

var haltonPrimes = [...]int{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47,
	53, 59, 61, 67, 71, 73, 79, 83, 89, 97, 101, 103, 107, 109,
	113, 127, 131, 137, 139, 149, 151, 157, 163, 167, 173, 179,
	181, 191, 193, 197, 199, 211, 223, 227, 229, 233, 239, 241,
	251, 257, 263, 269, 271, 277, 281, 283, 293, 307, 311, 313,
	317, 331, 337, 347, 349, 353, 359, 367, 373, 379, 383, 389,
	397, 401, 409, 419, 421, 431, 433, 439, 443, 449, 457, 461,
	463, 467, 479, 487, 491, 499, 503, 509, 521, 523, 541, 547,
	557, 563, 569, 571, 577, 587, 593, 599, 601, 607, 613, 617,
	619, 631, 641, 643, 647, 653, 659, 661, 673, 677, 683, 691,
	701, 709, 719, 727, 733, 739, 743, 751, 757, 761, 769, 773,
	787, 797, 809, 811, 821, 823, 827, 829, 839, 853, 857, 859,
	863, 877, 881, 883, 887, 907, 911, 919, 929, 937, 941, 947,
	953, 967, 971, 977, 983, 991, 997,
}

// HaltonDimensions is the number of dimensions before the sequence wraps
const HaltonDimensions = len(haltonPrimes)

const haltonSeed = 0x5eed

// haltonTables holds the permutation tables shared by every Halton sampler.
// They are built once and never written afterwards.
type haltonTables struct {
	primeIndices   [HaltonDimensions]int
	digitsStart    [HaltonDimensions]int
	scrambledDigit []int
}

var (
	haltonOnce   sync.Once
	sharedHalton *haltonTables
)

func loadHaltonTables() *haltonTables {
	haltonOnce.Do(func() {
		random := rand.New(rand.NewSource(haltonSeed))
		tables := &haltonTables{}
		for i, prime := range haltonPrimes {
			tables.primeIndices[i] = i
			tables.digitsStart[i] = len(tables.scrambledDigit)

			digits := make([]int, prime)
			for j := range digits {
				digits[j] = j
			}
			// bases 2 and 3 index the pixel raster and stay unscrambled
			if i > 1 {
				random.Shuffle(len(digits), func(a, b int) { digits[a], digits[b] = digits[b], digits[a] })
			}
			tables.scrambledDigit = append(tables.scrambledDigit, digits...)
		}

		rest := tables.primeIndices[2:]
		random.Shuffle(len(rest), func(a, b int) { rest[a], rest[b] = rest[b], rest[a] })
		sharedHalton = tables
	})
	return sharedHalton
}

// HaltonSampler is a scrambled Halton sequence whose first two dimensions are
// aligned to the pixel raster, so that StartPixelSample(x, y, s) selects a
// sequence point whose first two values fall inside pixel (x, y).
// A HaltonSampler is not safe for concurrent use; the tables it reads are.
type HaltonSampler struct {
	tables *haltonTables

	index     uint64
	dimension int

	widthExponent  int
	widthAligned   int
	heightExponent int
	heightAligned  int
	sampleStride   int
	euclidX        int
	euclidY        int
}

// NewHaltonSampler creates a sampler aligned to an image of the given size
func NewHaltonSampler(width, height int) *HaltonSampler {
	h := &HaltonSampler{tables: loadHaltonTables(), widthAligned: 1, heightAligned: 1}

	for h.widthAligned < width {
		h.widthExponent++
		h.widthAligned *= 2
	}
	for h.heightAligned < height {
		h.heightExponent++
		h.heightAligned *= 3
	}

	h.euclidX, h.euclidY = extendedEuclid(h.widthAligned, h.heightAligned)
	h.sampleStride = h.widthAligned * h.heightAligned
	return h
}

// extendedEuclid returns Bezout coefficients (s, t) with s*a + t*b = gcd(a, b)
func extendedEuclid(a, b int) (int, int) {
	r0, r1 := a, b
	s0, s1 := 1, 0
	t0, t1 := 0, 1

	for r1 > 0 {
		q := r0 / r1
		r0, r1 = r1, r0-q*r1
		s0, s1 = s1, s0-q*s1
		t0, t1 = t1, t0-q*t1
	}
	return s0, t0
}

// StartSample selects the sequence point with the given index
func (h *HaltonSampler) StartSample(index int) {
	h.index = uint64(index)
	h.dimension = 0
}

// StartPixelSample selects the sample-th sequence point that lands in pixel (x, y)
func (h *HaltonSampler) StartPixelSample(x, y, sample int) {
	xm, ym := x, y

	xr := 0
	for i := 0; i < h.widthExponent; i++ {
		xr = 2*xr + xm%2
		xm /= 2
	}

	yr := 0
	for i := 0; i < h.heightExponent; i++ {
		yr = 3*yr + ym%3
		ym /= 3
	}

	idx := xr*h.euclidY*h.heightAligned + yr*h.euclidX*h.widthAligned
	if idx < 0 {
		idx = h.sampleStride - (-idx % h.sampleStride)
	}
	idx %= h.sampleStride

	h.index = uint64(idx) + uint64(sample)*uint64(h.sampleStride)
	h.dimension = 0
}

// Get1D returns the next dimension of the current sequence point
func (h *HaltonSampler) Get1D() float64 {
	primeIndex := h.tables.primeIndices[h.dimension]
	base := uint64(haltonPrimes[primeIndex])
	digits := h.tables.scrambledDigit[h.tables.digitsStart[primeIndex]:]

	var n uint64
	d := uint64(1)
	for x, i := h.index, 0; x > 0; x, i = x/base, i+1 {
		// the low digits of the first two dimensions encode the pixel itself
		if h.dimension == 0 && i < h.widthExponent || h.dimension == 1 && i < h.heightExponent {
			continue
		}
		n = n*base + uint64(digits[x%base])
		d *= base
	}

	// account for the infinite tail of scrambled zero digits
	tail := float64(digits[0]) / float64(base-1)
	f := (float64(n) + tail) / float64(d)
	if f >= 1 {
		f = 0
	}

	h.dimension++
	if h.dimension == HaltonDimensions {
		h.dimension = 0
	}
	return f
}

// Get2D returns the next two dimensions of the current sequence point
func (h *HaltonSampler) Get2D() Vec2 {
	u := h.Get1D()
	v := h.Get1D()
	return NewVec2(u, v)
}
