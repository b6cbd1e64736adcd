package wsconn

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/renatosilva/wsconn/pkg/logging"
)

// boundedQueue is a fixed-capacity work queue with a single background
// worker goroutine. add never blocks the caller: a full queue drops the
// item and logs a warning, matching the spec's "non-blocking enqueue,
// drop under pressure" requirement for both the outbound send queues
// and the inbound dispatch queue.
type boundedQueue[T any] struct {
	name   string
	items  chan T
	handle func(T)
	log    logging.Logger
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed atomic.Bool
}

func newBoundedQueue[T any](name string, size int, log logging.Logger, handle func(T)) *boundedQueue[T] {
	if size <= 0 {
		size = 1
	}
	q := &boundedQueue[T]{
		name:   name,
		items:  make(chan T, size),
		handle: handle,
		log:    log,
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *boundedQueue[T]) run() {
	defer q.wg.Done()
	for item := range q.items {
		q.invoke(item)
	}
}

func (q *boundedQueue[T]) invoke(item T) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("queue worker recovered from panic",
				logging.String("queue", q.name), logging.Any("panic", r))
		}
	}()
	q.handle(item)
}

// add enqueues item without blocking. It returns false if the queue is
// disposed or full.
func (q *boundedQueue[T]) add(item T) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed.Load() {
		return false
	}
	select {
	case q.items <- item:
		return true
	default:
		q.log.Warn("queue full, dropping item", logging.String("queue", q.name))
		return false
	}
}

// dispose closes the queue to further adds, then waits up to
// drainTimeout for the worker to finish whatever is already enqueued.
func (q *boundedQueue[T]) dispose(drainTimeout time.Duration) {
	q.mu.Lock()
	if !q.closed.CompareAndSwap(false, true) {
		q.mu.Unlock()
		return
	}
	close(q.items)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(drainTimeout):
		q.log.Warn("queue drain timed out", logging.String("queue", q.name))
	}
}
