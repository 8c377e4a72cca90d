package users

import (
	"context"
	"sync"
)

// Mail is an outbound notification. Body rendering beyond simple
// interpolation is left to the Notifier implementation.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers notifications. Implementations talk to SMTP, an email
// API, or a message broker; the core never waits on them.
type Notifier interface {
	Send(ctx context.Context, msg Mail) error
}

// MailDispatcher is the fire-and-forget surface used by the core components.
type MailDispatcher interface {
	Dispatch(msg Mail)
}

type noopNotifier struct{}

func (noopNotifier) Send(context.Context, Mail) error { return nil }

// DefaultMailQueueSize bounds the in-flight notification queue.
const DefaultMailQueueSize = 64

// Dispatcher drains a bounded queue on a single background worker.
// Dispatch never blocks and delivery failures are logged, never surfaced to
// the operation that queued them.
type Dispatcher struct {
	notifier Notifier
	logger   Logger
	queue    chan Mail
	done     chan struct{}
	close    sync.Once
}

// NewDispatcher starts the background delivery worker.
func NewDispatcher(notifier Notifier, opts ...DispatcherOption) *Dispatcher {
	if notifier == nil {
		notifier = noopNotifier{}
	}

	d := &Dispatcher{
		notifier: notifier,
		logger:   defLogger{},
		queue:    make(chan Mail, DefaultMailQueueSize),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	go d.drain()

	return d
}

// DispatcherOption customizes dispatcher construction.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger overrides the logger used for delivery failures.
func WithDispatcherLogger(logger Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDispatcherQueueSize overrides the queue bound.
func WithDispatcherQueueSize(size int) DispatcherOption {
	return func(d *Dispatcher) {
		if size > 0 {
			d.queue = make(chan Mail, size)
		}
	}
}

// Dispatch enqueues a notification without blocking. When the queue is full
// the message is dropped and logged, delivery is best effort.
func (d *Dispatcher) Dispatch(msg Mail) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("mail queue full, dropping notification", "to", msg.To, "subject", msg.Subject)
	}
}

// Close stops accepting messages and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.close.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *Dispatcher) drain() {
	defer close(d.done)
	for msg := range d.queue {
		if err := d.notifier.Send(context.Background(), msg); err != nil {
			d.logger.Error("mail delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		}
	}
}

var _ MailDispatcher = (*Dispatcher)(nil)
