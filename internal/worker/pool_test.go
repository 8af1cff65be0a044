package worker_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lessonloop/backend/internal/worker"
)

func TestPoolRunsAllJobs(t *testing.T) {
	p := worker.NewPool[int](4, 16)

	var results []<-chan int
	for i := 0; i < 20; i++ {
		i := i
		results = append(results, p.Do(func() int { return i * 2 }))
	}

	sum := 0
	for _, ch := range results {
		sum += <-ch
	}
	// 2 * (0 + 1 + ... + 19)
	if want := 380; sum != want {
		t.Errorf("expected sum %d, got %d", want, sum)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const workers = 2
	p := worker.NewPool[struct{}](workers, 16)

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		p.Do(func() struct{} {
			defer wg.Done()
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return struct{}{}
		})
	}
	wg.Wait()

	if got := atomic.LoadInt32(&peak); got > workers {
		t.Errorf("expected at most %d jobs running at once, saw %d", workers, got)
	}
}

func TestPoolAbandonedResultDoesNotBlockWorker(t *testing.T) {
	p := worker.NewPool[int](1, 1)

	// Nobody reads this result. The buffered done channel must let the
	// single worker move on to the next job.
	p.Do(func() int { return 1 })

	done := p.Do(func() int { return 2 })
	select {
	case v := <-done:
		if v != 2 {
			t.Errorf("expected 2, got %d", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker stuck behind an abandoned result")
	}
}
