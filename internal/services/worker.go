package services

import (
	"context"
	"log"
	"sync"
)

// Worker is a bounded task pool for I/O-bound scoring and embedding calls.
// Concurrency is capped at the configured worker count; submitted tasks run
// independently so one failure never affects siblings.
type Worker interface {
	Start(ctx context.Context)
	Stop()
	Submit(task func(ctx context.Context)) bool
}

type worker struct {
	taskQueue   chan func(ctx context.Context)
	concurrency int
	wg          sync.WaitGroup
	stopOnce    sync.Once
	stopChan    chan struct{}
}

func NewWorker(concurrency int) Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &worker{
		taskQueue:   make(chan func(ctx context.Context), 100),
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	log.Printf("🚀 Starting worker pool with %d workers\n", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processTasks(ctx, i+1)
	}
}

// Stop implements Worker. In-flight tasks finish; queued tasks drain before
// the workers exit.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		log.Println("🛑 Stopping worker pool...")
		close(w.stopChan)
		w.wg.Wait()
		log.Println("✅ Worker pool stopped")
	})
}

// Submit implements Worker. Returns false when the pool is shutting down.
func (w *worker) Submit(task func(ctx context.Context)) bool {
	select {
	case <-w.stopChan:
		return false
	default:
	}

	select {
	case w.taskQueue <- task:
		return true
	case <-w.stopChan:
		return false
	}
}

func (w *worker) processTasks(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			// Drain remaining tasks before exiting.
			for {
				select {
				case task := <-w.taskQueue:
					task(ctx)
				default:
					log.Printf("👷 Worker #%d stopped\n", workerID)
					return
				}
			}
		case task := <-w.taskQueue:
			task(ctx)
		}
	}
}
