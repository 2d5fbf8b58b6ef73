package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DispatcherConfig holds dispatcher configuration
type DispatcherConfig struct {
	WorkerCount    int           // default: 2
	QueueSize      int           // default: 1000
	PublishTimeout time.Duration // default: 5 seconds
}

// Dispatcher queues events in memory and publishes them from background
// workers. When the queue is full the event is dropped with a warning.
type Dispatcher struct {
	publisher Publisher
	logger    *slog.Logger
	config    DispatcherConfig

	queue    chan Event
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewDispatcher creates a dispatcher and starts its workers.
func NewDispatcher(publisher Publisher, logger *slog.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}
	if cfg.PublishTimeout == 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		publisher: publisher,
		logger:    logger,
		config:    cfg,
		queue:     make(chan Event, cfg.QueueSize),
		stopCh:    make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	logger.Info("event dispatcher started", "workers", cfg.WorkerCount, "queue_size", cfg.QueueSize)
	return d
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.queue:
			d.publish(id, event)
		case <-d.stopCh:
			// drain what is already queued
			for {
				select {
				case event := <-d.queue:
					d.publish(id, event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) publish(workerID int, event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.PublishTimeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.Error("failed to publish event",
			"worker", workerID,
			"event_id", event.ID,
			"event", event.Name,
			"error", err,
		)
	}
}

// Emit implements Emitter.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	select {
	case <-d.stopCh:
		d.logger.WarnContext(ctx, "event dropped, dispatcher stopped", "event", event.Name)
		return
	default:
	}

	select {
	case d.queue <- event:
	default:
		d.logger.WarnContext(ctx, "event dropped, queue full", "event", event.Name, "event_id", event.ID)
	}
}

// Stop stops accepting events, publishes what is queued and waits for the workers.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
	})
	d.wg.Wait()
}
