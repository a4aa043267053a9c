package async

import (
	"sync"

	"github.com/AbdelzaherMuhammed/hypervel/internal/utils/log"
)

// Fire-and-forget execution for work that must not add to request
// latency: audit rows, cache warm-writes, usage counters, VIN log
// persistence. Failures (and panics) inside submitted work are logged and
// never reach the caller.

const queueSize = 1024

var (
	once    sync.Once
	queue   chan func()
	wg      sync.WaitGroup
	closed  chan struct{}
	closeMu sync.RWMutex
)

func Init(workers int) {
	once.Do(func() {
		if workers <= 0 {
			workers = 4
		}
		queue = make(chan func(), queueSize)
		closed = make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go worker()
		}
	})
}

func worker() {
	defer wg.Done()
	for fn := range queue {
		run(fn)
	}
}

func run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("async task panic: %v", r)
		}
	}()
	fn()
}

// Submit schedules fn for out-of-band execution. When the queue is full
// the task runs inline on a fresh goroutine rather than blocking or being
// dropped. The read lock keeps Close from closing the queue between the
// closed check and the send.
func Submit(fn func()) {
	if queue == nil {
		// Sink not initialized (unit tests); run detached.
		go run(fn)
		return
	}
	closeMu.RLock()
	defer closeMu.RUnlock()
	select {
	case <-closed:
		return
	default:
	}
	select {
	case queue <- fn:
	default:
		go run(fn)
	}
}

// Close drains the queue and stops the workers. Registered as a shutdown
// hook so buffered audit work is not lost on exit.
func Close() error {
	closeMu.Lock()
	defer closeMu.Unlock()
	if queue == nil {
		return nil
	}
	select {
	case <-closed:
		return nil
	default:
		close(closed)
	}
	close(queue)
	wg.Wait()
	return nil
}
