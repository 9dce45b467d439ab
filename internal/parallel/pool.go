// Package parallel runs independent tile flushes on a fixed set of worker
// goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// task is one index of a Run call.
type task struct {
	fn   func(i int)
	i    int
	done *sync.WaitGroup
}

// Pool is a fixed set of workers with one queue each. An idle worker
// steals from the other queues before blocking on its own.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan task
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// New starts a pool. If workers is 0 or negative, GOMAXPROCS is used.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	depth := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queues:  make([]chan task, workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan task, depth)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case t := <-own:
			t.run()
			continue
		default:
		}
		if t, ok := p.steal(id); ok {
			t.run()
			continue
		}
		select {
		case <-p.done:
			drain(own)
			return
		case t := <-own:
			t.run()
		}
	}
}

func (t task) run() {
	defer t.done.Done()
	t.fn(t.i)
}

func drain(q chan task) {
	for {
		select {
		case t := <-q:
			t.run()
		default:
			return
		}
	}
}

func (p *Pool) steal(id int) (task, bool) {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case t := <-p.queues[i]:
			return t, true
		default:
		}
	}
	return task{}, false
}

// Run calls fn(i) for i in [0, n) across the workers and waits for all of
// them. After Close, Run calls fn on the caller's goroutine.
func (p *Pool) Run(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if n == 1 || !p.running.Load() {
		for i := range n {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		t := task{fn: fn, i: i, done: &wg}
		select {
		case p.queues[i%p.workers] <- t:
		case <-p.done:
			t.run()
		}
	}
	wg.Wait()
}

// Close stops the workers after their queued work. It is safe to call
// more than once.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}
