package executor

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Job is a unit of parallel work shared by every worker of an Executor
type Job interface {
	// NewThreadLocal creates the per-worker state passed to Execute
	NewThreadLocal() any

	// Execute performs one granule of work and returns false once the job is exhausted
	Execute(threadLocal any) bool

	// Done is called once, by a single worker, after every worker has left an exhausted job
	Done()
}

// run is one submission of a job to the workers
type run struct {
	job       Job
	done      func()
	remaining atomic.Int32 // Workers that have not yet left the job
	exhausted atomic.Bool  // Some worker saw Execute return false
}

// Executor is a fixed pool of workers that cooperatively execute one job at a time
type Executor struct {
	commands   []chan *run
	numWorkers int

	stopped atomic.Bool
	closed  atomic.Bool
	pending atomic.Int32 // Worker assignments not yet finished
	active  sync.WaitGroup
	workers sync.WaitGroup
	close   sync.Once
}

// New creates an executor with numWorkers parked workers. A count of 0 or
// less uses one worker per CPU.
func New(numWorkers int) *Executor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	e := &Executor{numWorkers: numWorkers}
	for i := 0; i < numWorkers; i++ {
		commands := make(chan *run, 64)
		e.commands = append(e.commands, commands)
		e.workers.Add(1)
		go e.runWorker(commands)
	}
	return e
}

// NumWorkers returns the number of workers in the pool
func (e *Executor) NumWorkers() int {
	return e.numWorkers
}

// RunJob hands job to every worker. When the last worker leaves an exhausted
// job, job.Done and then done (if non-nil) are called from that worker. A
// job left because of Stop is not done and neither callback fires.
// RunJob may be called from a done callback to chain jobs.
func (e *Executor) RunJob(job Job, done func()) {
	if e.closed.Load() {
		return
	}
	e.stopped.Store(false)

	r := &run{job: job, done: done}
	r.remaining.Store(int32(e.numWorkers))

	e.pending.Add(int32(e.numWorkers))
	e.active.Add(e.numWorkers)
	for _, commands := range e.commands {
		commands <- r
	}
}

// Stop asks the workers to leave the current job after their current granule
func (e *Executor) Stop() {
	e.stopped.Store(true)
}

// Running reports whether any worker is assigned to a job
func (e *Executor) Running() bool {
	return e.pending.Load() > 0
}

// Wait blocks until no worker is assigned to a job, including jobs chained
// from done callbacks
func (e *Executor) Wait() {
	e.active.Wait()
}

// Close stops the current job and terminates the workers. Jobs submitted
// after Close are ignored.
func (e *Executor) Close() {
	e.close.Do(func() {
		e.closed.Store(true)
		e.Stop()
		e.Wait()
		for _, commands := range e.commands {
			close(commands)
		}
		e.workers.Wait()
	})
}

func (e *Executor) runWorker(commands <-chan *run) {
	defer e.workers.Done()

	for r := range commands {
		e.execute(r)
	}
}

func (e *Executor) execute(r *run) {
	// The assignment is released after the callbacks so that a job chained
	// from done is registered before Wait can observe zero
	defer e.active.Done()
	defer e.pending.Add(-1)

	threadLocal := r.job.NewThreadLocal()
	for !e.stopped.Load() {
		if !r.job.Execute(threadLocal) {
			r.exhausted.Store(true)
			break
		}
	}

	if r.remaining.Add(-1) == 0 && r.exhausted.Load() {
		r.job.Done()
		if r.done != nil {
			r.done()
		}
	}
}
