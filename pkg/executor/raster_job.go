package executor

import "sync/atomic"

// RasterJob visits every (x, y, iteration) of a width×height×iterations
// index space exactly once, in no particular order across workers
type RasterJob[T any] struct {
	width      int
	height     int
	iterations int
	next       atomic.Int64

	newLocal func() *T
	execute  func(x, y, iteration int, local *T)
	done     func()
}

// NewRasterJob creates a raster job. newLocal creates each worker's state;
// done, if non-nil, runs when the job completes.
func NewRasterJob[T any](width, height, iterations int, newLocal func() *T, execute func(x, y, iteration int, local *T), done func()) *RasterJob[T] {
	return &RasterJob[T]{
		width:      width,
		height:     height,
		iterations: iterations,
		newLocal:   newLocal,
		execute:    execute,
		done:       done,
	}
}

// NewThreadLocal creates a worker's state
func (j *RasterJob[T]) NewThreadLocal() any {
	return j.newLocal()
}

// Execute claims the next index and runs it
func (j *RasterJob[T]) Execute(threadLocal any) bool {
	pixels := int64(j.width) * int64(j.height)
	if pixels == 0 {
		return false
	}

	index := j.next.Add(1) - 1
	iteration := index / pixels
	if iteration >= int64(j.iterations) {
		return false
	}

	x := int(index % int64(j.width))
	y := int((index / int64(j.width)) % int64(j.height))
	j.execute(x, y, int(iteration), threadLocal.(*T))
	return true
}

// Done runs the completion function
func (j *RasterJob[T]) Done() {
	if j.done != nil {
		j.done()
	}
}

// FuncJob adapts a function to the Job interface. execute returns false when
// there is no more work.
type FuncJob[T any] struct {
	newLocal func() *T
	execute  func(local *T) bool
	done     func()
}

// NewFuncJob creates a job from functions
func NewFuncJob[T any](newLocal func() *T, execute func(local *T) bool, done func()) *FuncJob[T] {
	return &FuncJob[T]{newLocal: newLocal, execute: execute, done: done}
}

// NewThreadLocal creates a worker's state
func (j *FuncJob[T]) NewThreadLocal() any {
	return j.newLocal()
}

// Execute runs one granule
func (j *FuncJob[T]) Execute(threadLocal any) bool {
	return j.execute(threadLocal.(*T))
}

// Done runs the completion function
func (j *FuncJob[T]) Done() {
	if j.done != nil {
		j.done()
	}
}
