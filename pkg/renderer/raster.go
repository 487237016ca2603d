package renderer

// Raster is a width×height grid of values, row-major from the top left
type Raster[T any] struct {
	width  int
	height int
	values []T
}

// NewRaster creates a raster of zero values
func NewRaster[T any](width, height int) *Raster[T] {
	return &Raster[T]{width: width, height: height, values: make([]T, width*height)}
}

// Width returns the width of the raster
func (r *Raster[T]) Width() int {
	return r.width
}

// Height returns the height of the raster
func (r *Raster[T]) Height() int {
	return r.height
}

// Get returns the value at (x, y)
func (r *Raster[T]) Get(x, y int) T {
	return r.values[y*r.width+x]
}

// At returns a pointer to the value at (x, y)
func (r *Raster[T]) At(x, y int) *T {
	return &r.values[y*r.width+x]
}

// Set stores the value at (x, y)
func (r *Raster[T]) Set(x, y int, value T) {
	r.values[y*r.width+x] = value
}

// Contains reports whether (x, y) lies inside the raster
func (r *Raster[T]) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.width && y < r.height
}

// Reset sets every value to the zero value
func (r *Raster[T]) Reset() {
	clear(r.values)
}
