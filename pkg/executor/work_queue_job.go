package executor

import (
	"runtime"
	"sync/atomic"
)

// Stage binds a queue to the function that processes its keys
type Stage[T any] struct {
	Queue *WorkQueue
	Work  func(key Key, local *T)
}

// WorkQueueJob drains one or more queues, processing each key with its
// stage's function. Workers rotate across the stages so every queue with
// work makes progress. Processing may add keys to any of the job's queues;
// the job is exhausted once every queue is empty and no key is in flight.
type WorkQueueJob[T any] struct {
	stages   []Stage[T]
	newLocal func() *T
	inFlight atomic.Int32
}

type workQueueLocal[T any] struct {
	local *T
	next  int // Stage to try first
}

// NewWorkQueueJob creates a job over the given stages
func NewWorkQueueJob[T any](newLocal func() *T, stages ...Stage[T]) *WorkQueueJob[T] {
	return &WorkQueueJob[T]{stages: stages, newLocal: newLocal}
}

// NewThreadLocal creates a worker's state
func (j *WorkQueueJob[T]) NewThreadLocal() any {
	return &workQueueLocal[T]{local: j.newLocal()}
}

// Execute processes one key from the first stage with work
func (j *WorkQueueJob[T]) Execute(threadLocal any) bool {
	state := threadLocal.(*workQueueLocal[T])

	// Count in before looking, so an empty check that sees no keys and no
	// work in flight cannot miss a key being produced by another worker
	j.inFlight.Add(1)
	for i := range j.stages {
		stage := j.stages[(state.next+i)%len(j.stages)]
		if key, ok := stage.Queue.Next(); ok {
			stage.Work(key, state.local)
			j.inFlight.Add(-1)
			state.next = (state.next + i + 1) % len(j.stages)
			return true
		}
	}

	if j.inFlight.Add(-1) != 0 {
		// Another worker may still produce keys
		runtime.Gosched()
		return true
	}
	return false
}

// Done does nothing; completion is signalled through the executor's done function
func (j *WorkQueueJob[T]) Done() {}
