// internal/message/dispatcher.go
//
// Detached, best-effort delivery.
//
// Context
//   A notification must never change the HTTP outcome of the request that
//   triggered it.  Go hands the send to its own goroutine with a context
//   that survives request cancellation (request-scoped values such as the
//   logger are kept) and a bounded timeout.  Failures are logged and
//   counted, never returned.  Wait lets main drain in-flight sends during
//   shutdown.
//
//------------------------------------------------------------------------------

package message

import (
	"context"
	"sync"
	"time"

	"github.com/senderotrails/site/internal/logger"
	"github.com/senderotrails/site/internal/metrics"
)

// DefaultSendTimeout bounds a single send.
const DefaultSendTimeout = 10 * time.Second

// Dispatcher runs sends in the background.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher returns a Dispatcher.  timeout <= 0 selects the default.
func NewDispatcher(s Sender, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Dispatcher{sender: s, timeout: timeout}
}

// Go schedules msg for delivery and returns immediately.
func (d *Dispatcher) Go(ctx context.Context, formID string, msg Email) {
	base := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.send(base, formID, msg)
	}()
}

func (d *Dispatcher) send(ctx context.Context, formID string, msg Email) {
	log := logger.FromContext(ctx)
	defer func() {
		if rec := recover(); rec != nil {
			metrics.Notifications.WithLabelValues("failed").Inc()
			log.Errorw("notification panic", "form", formID, "stage", "notifying", "panic", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	id, err := d.sender.Send(ctx, msg)
	if err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		log.Errorw("notification failed", "form", formID, "stage", "notifying", "err", err)
		return
	}
	metrics.Notifications.WithLabelValues("sent").Inc()
	log.Infow("notification sent", "form", formID, "message_id", id)
}

// Wait blocks until every scheduled send finishes or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
