/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package proxycore is the fixed-size worker pool and filtering request
// pipeline backing the forward proxy.
package proxycore

import (
	"sync"

	"github.com/nabbar/chatproxy/internal/apperr"
)

// MaxWorkers bounds the pool size a caller may request.
const MaxWorkers = 256

// Task is one unit of dispatched work.
type Task func()

// taskQueue is a FIFO of pending tasks guarded by one mutex and two
// condition variables: notEmpty wakes a worker when a task arrives or on
// shutdown, drained wakes the destroying goroutine once the queue empties
// while stopAccepting is set.
type taskQueue struct {
	mu            sync.Mutex
	notEmpty      *sync.Cond
	drained       *sync.Cond
	items         []Task
	size          int
	stopAccepting bool
	shutdown      bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	q.notEmpty = sync.NewCond(&q.mu)
	q.drained = sync.NewCond(&q.mu)
	return q
}

// dispatch appends t to the queue unless the pool has stopped accepting
// work, in which case it is silently dropped.
func (q *taskQueue) dispatch(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopAccepting {
		return
	}

	q.items = append(q.items, t)
	q.size++
	q.notEmpty.Signal()
}

// drainIntoWorker blocks until a task is available or shutdown is signaled.
// It returns (nil, false) when the worker should exit.
func (q *taskQueue) drainIntoWorker() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && !q.shutdown {
		q.notEmpty.Wait()
	}

	if q.shutdown || (q.size == 0 && q.stopAccepting) {
		return nil, false
	}

	t := q.items[0]
	q.items = q.items[1:]
	q.size--

	if q.size == 0 && q.stopAccepting {
		q.drained.Signal()
	}

	return t, true
}

// WorkerPool is a fixed-size pool of goroutines consuming from one
// taskQueue, with dispatch and teardown split into distinct quiescence
// and shutdown phases.
type WorkerPool struct {
	queue *taskQueue
	wg    sync.WaitGroup
}

// NewWorkerPool starts workers goroutines. It fails with
// apperr.ResourceExhausted if workers exceeds MaxWorkers or is non-positive.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 || workers > MaxWorkers {
		return nil, apperr.Newf(apperr.ResourceExhausted, "worker count %d out of range (1..%d)", workers, MaxWorkers)
	}

	p := &WorkerPool{queue: newTaskQueue()}
	p.wg.Add(workers)

	for i := 0; i < workers; i++ {
		go p.work()
	}

	return p, nil
}

func (p *WorkerPool) work() {
	defer p.wg.Done()

	for {
		t, ok := p.queue.drainIntoWorker()
		if !ok {
			return
		}
		t()
	}
}

// Dispatch enqueues t for execution by the next free worker. After Destroy
// has begun, dispatched tasks are silently dropped.
func (p *WorkerPool) Dispatch(t Task) {
	p.queue.dispatch(t)
}

// Destroy runs the pool's three-phase, quiescence-then-shutdown teardown:
// stop accepting new tasks, wait for the queue to drain, then wake every
// worker for good and join them. It returns once no worker is running and
// no task remains queued.
func (p *WorkerPool) Destroy() {
	p.queue.mu.Lock()
	p.queue.stopAccepting = true

	for p.queue.size > 0 {
		p.queue.drained.Wait()
	}

	p.queue.shutdown = true
	p.queue.notEmpty.Broadcast()
	p.queue.mu.Unlock()

	p.wg.Wait()
}
