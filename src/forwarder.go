package samealert

/*------------------------------------------------------------------
 *
 * Purpose:	Deliver routed alerts to the mesh node without ever
 *		stalling the decode path.
 *
 * Description:	The decode goroutine enqueues; a single I/O goroutine
 *		dequeues in FIFO order and owns the connection.  A send
 *		failure tears the connection down and walks an
 *		exponential backoff ladder while reconnecting; when the
 *		per-delivery attempt budget runs out the alert is
 *		reported as failed and the next one starts against a
 *		fresh connection.  Alerts are delivered in the order
 *		they were routed, across reconnects.
 *
 *		When the queue is full, preference for dropping goes to
 *		an older entry superseded by a newer one with the same
 *		fingerprint; only if none exists is the oldest entry
 *		dropped, and that is always logged.
 *
 *----------------------------------------------------------------*/

import (
	"context"
	"sync"
	"time"
)

// Conn is one live session to the mesh node.
type Conn interface {
	SendText(text string, channel int) error
	Close() error
}

// DialFunc establishes a fresh session.
type DialFunc func() (Conn, error)

// Forwarder owns the connection lifecycle and the delivery queue.
type Forwarder struct {
	dial DialFunc

	mu     sync.Mutex
	queue  []Delivery
	wake   chan struct{}
	closed bool

	capacity       int
	backoffInitial time.Duration
	backoffMax     time.Duration
	maxTries       int
	grace          time.Duration

	conn Conn
	done chan struct{}
}

// NewForwarder builds a forwarder from the configured queue and retry
// policy.  dial is called lazily; no connection exists until the
// first delivery (or an explicit Connect).
func NewForwarder(cfg *Config, dial DialFunc) *Forwarder {
	return &Forwarder{
		dial:           dial,
		wake:           make(chan struct{}, 1),
		capacity:       cfg.QueueSize,
		backoffInitial: cfg.BackoffInitial,
		backoffMax:     cfg.BackoffMax,
		maxTries:       cfg.MaxDeliveryTries,
		grace:          cfg.ShutdownGrace,
		done:           make(chan struct{}),
	}
}

// Connect eagerly establishes the first session so a bad device path
// or unreachable host is reported at startup rather than on the first
// alert.
func (f *Forwarder) Connect() error {
	conn, err := f.dial()
	if err != nil {
		return &TransportError{Op: "connect", Err: err}
	}
	f.conn = conn
	return nil
}

// Enqueue adds a delivery, applying the drop policy when full.
// Safe to call from the decode goroutine at any time.
func (f *Forwarder) Enqueue(d Delivery) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}

	if len(f.queue) >= f.capacity {
		if !f.dropSupersededLocked(d.Fingerprint) {
			var victim = f.queue[0]
			f.queue = f.queue[1:]
			logger.Warn("Forward queue full, dropping oldest undelivered alert",
				"fingerprint", victim.Fingerprint)
		}
		metricQueueDropped.Inc()
	}

	f.queue = append(f.queue, d)
	metricQueueDepth.Set(float64(len(f.queue)))
	f.mu.Unlock()

	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// dropSupersededLocked removes the oldest queued delivery sharing the
// incoming fingerprint, if any.  A newer rendering of the same alert
// makes the old one worthless.
func (f *Forwarder) dropSupersededLocked(fingerprint string) bool {
	for i, d := range f.queue {
		if d.Fingerprint == fingerprint {
			logger.Debug("Superseding queued alert", "fingerprint", fingerprint)
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			return true
		}
	}
	return false
}

// Run consumes the queue until ctx is cancelled, then finishes the
// in-flight delivery within the grace period and releases the
// connection.
func (f *Forwarder) Run(ctx context.Context) {
	defer close(f.done)
	defer f.teardown()

	for {
		d, ok := f.next(ctx)
		if !ok {
			return
		}
		f.deliver(ctx, d)
	}
}

// Stop waits for the I/O goroutine to drain its in-flight work, up to
// the grace period.
func (f *Forwarder) Stop() {
	select {
	case <-f.done:
	case <-time.After(f.grace):
		logger.Warn("Forwarder did not stop within grace period")
	}
}

func (f *Forwarder) next(ctx context.Context) (Delivery, bool) {
	for {
		f.mu.Lock()
		if len(f.queue) > 0 {
			var d = f.queue[0]
			f.queue = f.queue[1:]
			metricQueueDepth.Set(float64(len(f.queue)))
			f.mu.Unlock()
			return d, true
		}
		f.mu.Unlock()

		select {
		case <-ctx.Done():
			return Delivery{}, false
		case <-f.wake:
		}
	}
}

func (f *Forwarder) deliver(ctx context.Context, d Delivery) {
	var backoff = f.backoffInitial

	for attempt := 1; attempt <= f.maxTries; attempt++ {
		if f.conn == nil {
			conn, err := f.dial()
			if err != nil {
				metricReconnects.Inc()
				logger.Warn("Reconnect failed",
					"attempt", attempt, "backoff", backoff, "err", err)
				if !sleep(ctx, backoff) {
					// Shutting down mid-delivery; the alert is
					// reported as undelivered.
					metricAlertsFailed.Inc()
					return
				}
				backoff = nextBackoff(backoff, f.backoffMax)
				continue
			}
			// Replace the handle atomically: the old session is
			// gone, nothing of it can interleave with the new one.
			f.conn = conn
		}

		var err = f.conn.SendText(d.Text, d.Channel)
		if err == nil {
			metricAlertsForwarded.Inc()
			logger.Info("Forwarded alert", "fingerprint", d.Fingerprint, "channel", d.Channel)
			return
		}

		logger.Warn("Send failed", "fingerprint", d.Fingerprint, "attempt", attempt, "err", err)
		f.conn.Close()
		f.conn = nil

		if !sleep(ctx, backoff) {
			metricAlertsFailed.Inc()
			return
		}
		backoff = nextBackoff(backoff, f.backoffMax)
	}

	metricAlertsFailed.Inc()
	logger.Error("Delivery failed after retries",
		"fingerprint", d.Fingerprint, "tries", f.maxTries)
}

func (f *Forwarder) teardown() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
}

// sleep waits for d unless ctx is cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	var t = time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nextBackoff(cur, limit time.Duration) time.Duration {
	cur *= 2
	if cur > limit {
		return limit
	}
	return cur
}
