package worker

// Job is a unit of work executed by the pool.
type Job[T any] func() T

// Pool runs jobs on a fixed number of goroutines, bounding how many execute
// at once. Queued jobs beyond the buffer make Do block, which is the
// backpressure we want in front of a slow external service.
type Pool[T any] struct {
	jobs chan job[T]
}

type job[T any] struct {
	fn   Job[T]
	done chan T
}

func NewPool[T any](workerCount, bufferSize int) *Pool[T] {
	p := &Pool[T]{
		jobs: make(chan job[T], bufferSize),
	}

	for i := 0; i < workerCount; i++ {
		go p.worker()
	}

	return p
}

func (p *Pool[T]) worker() {
	for j := range p.jobs {
		j.done <- j.fn()
	}
}

// Do queues fn and returns a channel that receives its result once a worker
// has run it. The channel is buffered, so abandoning it does not leak the
// worker.
func (p *Pool[T]) Do(fn Job[T]) <-chan T {
	done := make(chan T, 1)
	p.jobs <- job[T]{fn: fn, done: done}
	return done
}
