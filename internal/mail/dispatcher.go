package mail

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const sendTimeout = 30 * time.Second

// Dispatcher queues messages and delivers them from a fixed worker pool.
type Dispatcher struct {
	sender  Sender
	log     *zap.Logger
	ch      chan Message
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

// NewDispatcher starts workers goroutines draining a queue of queueSize.
func NewDispatcher(sender Sender, log *zap.Logger, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	d := &Dispatcher{
		sender: sender,
		log:    log,
		ch:     make(chan Message, queueSize),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.ch {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := d.sender.Send(ctx, msg); err != nil {
			d.log.Error("mail send failed", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
		} else {
			d.log.Debug("mail sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
		}
		cancel()
	}
}

// Enqueue hands msg to the workers without blocking. When the queue is full
// or the dispatcher is closed the message is dropped and logged.
func (d *Dispatcher) Enqueue(msg Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		d.log.Warn("mail dispatcher closed, message dropped", zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return
	}
	select {
	case d.ch <- msg:
	default:
		d.dropped.Add(1)
		d.log.Warn("mail queue full, message dropped", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	}
}

// Dropped reports how many messages were discarded.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close stops accepting messages and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()

	d.wg.Wait()
}
