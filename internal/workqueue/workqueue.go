// Package workqueue runs side effects on per-key serial queues that draw
// their workers from a bounded shared pool.
package workqueue

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many queues drain at the same time.
type Pool struct {
	sem    *semaphore.Weighted
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewPool creates a pool of workers goroutines; workers <= 0 means one.
func NewPool(workers int64, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		sem:    semaphore.NewWeighted(workers),
		logger: logger,
	}
}

// Go runs task once a worker is free.
func (p *Pool) Go(task func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		// Контекст без отмены: Acquire не вернет ошибку
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)
		p.run(task)
	}()
}

// Wait blocks until every task started with Go has finished, including
// tasks queued while waiting.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(task func()) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("task panicked", "panic", rec, "stack", string(debug.Stack()))
		}
	}()
	task()
}

// Serial executes its tasks one at a time in enqueue order. At most one
// worker drains a queue at any moment; tasks may enqueue onto their own queue.
type Serial struct {
	pool    *Pool
	tasks   []func()
	mu      sync.Mutex
	running bool
}

// NewSerial creates a queue backed by pool.
func NewSerial(pool *Pool) *Serial {
	return &Serial{pool: pool}
}

// Enqueue appends task to the queue.
func (s *Serial) Enqueue(task func()) {
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	// Запуск до разблокировки, чтобы Pool.Wait не пропустил новую задачу
	s.pool.Go(s.drain)
	s.mu.Unlock()
}

// Len returns the number of tasks waiting to run.
func (s *Serial) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Serial) drain() {
	for {
		s.mu.Lock()
		if len(s.tasks) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		task := s.tasks[0]
		s.tasks[0] = nil
		s.tasks = s.tasks[1:]
		s.mu.Unlock()

		s.pool.run(task)
	}
}
