package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samenactief/backend/internal/pkg/apperrors"
)

var (
	ErrQueueFull        = fmt.Errorf("%w: queue full", apperrors.ErrNotificationDeliveryFailed)
	ErrDispatcherClosed = fmt.Errorf("%w: dispatcher closed", apperrors.ErrNotificationDeliveryFailed)
)

// Options tunes a Dispatcher
type Options struct {
	Workers      int
	QueueSize    int
	SendTimeout  time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.QueueSize < 1 {
		o.QueueSize = 1
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 15 * time.Second
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = time.Second
	}
	return o
}

// Dispatcher is an in-process outbox. Messages are rendered and queued by
// the request goroutine and delivered by a fixed pool of workers, so a slow
// or failing mail provider never holds up a registration.
type Dispatcher struct {
	sender Sender
	opts   Options
	logger zerolog.Logger
	now    func() time.Time

	queue chan Message
	wg    sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	started bool
}

// NewDispatcher creates a dispatcher. Start must be called before messages are delivered.
func NewDispatcher(sender Sender, opts Options, logger zerolog.Logger) *Dispatcher {
	opts = opts.withDefaults()
	return &Dispatcher{
		sender: sender,
		opts:   opts,
		logger: logger.With().Str("component", "notification").Str("sender", sender.Name()).Logger(),
		now:    time.Now,
		queue:  make(chan Message, opts.QueueSize),
	}
}

// Start launches the worker pool. Calling it twice has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info().Int("workers", d.opts.Workers).Int("queueSize", d.opts.QueueSize).Msg("Notification dispatcher started")
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(id, msg)
	}
}

func (d *Dispatcher) deliver(worker int, msg Message) {
	log := d.logger.With().Int("worker", worker).Str("messageId", msg.ID).Str("kind", string(msg.Kind)).Logger()

	var err error
	for attempt := 1; attempt <= d.opts.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.opts.SendTimeout)
		err = d.sender.Send(ctx, msg)
		cancel()
		if err == nil {
			log.Debug().Int("attempt", attempt).Msg("Notification delivered")
			return
		}

		log.Warn().Err(err).Int("attempt", attempt).Msg("Notification delivery attempt failed")
		if attempt < d.opts.MaxAttempts {
			time.Sleep(d.opts.RetryBackoff * time.Duration(attempt))
		}
	}

	log.Error().Err(errors.Join(apperrors.ErrNotificationDeliveryFailed, err)).Msg("Giving up on notification")
}

// Enqueue hands a rendered message to the workers without blocking
func (d *Dispatcher) Enqueue(msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- msg:
		return nil
	default:
		d.logger.Warn().Str("messageId", msg.ID).Str("kind", string(msg.Kind)).Msg("Notification queue full, dropping message")
		return ErrQueueFull
	}
}

func (d *Dispatcher) build(kind Kind, notice Notice) (Message, error) {
	subject, html, text, err := Render(kind, notice)
	if err != nil {
		return Message{}, err
	}
	return Message{
		ID:        uuid.New().String(),
		Kind:      kind,
		To:        notice.ContactAddress,
		ToName:    notice.DisplayName,
		Subject:   subject,
		HTMLBody:  html,
		TextBody:  text,
		Notice:    notice,
		CreatedAt: d.now(),
	}, nil
}

func (d *Dispatcher) send(kind Kind, notice Notice) error {
	if notice.ContactAddress == "" {
		return fmt.Errorf("%w: no contact address", apperrors.ErrNotificationDeliveryFailed)
	}
	msg, err := d.build(kind, notice)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrNotificationDeliveryFailed, err)
	}
	return d.Enqueue(msg)
}

// SendRegistrationConfirmation queues the "you are registered" email
func (d *Dispatcher) SendRegistrationConfirmation(_ context.Context, notice Notice) error {
	return d.send(KindRegistrationConfirmation, notice)
}

// SendWaitlistPromotion queues the "a seat opened up for you" email
func (d *Dispatcher) SendWaitlistPromotion(_ context.Context, notice Notice) error {
	return d.send(KindWaitlistPromotion, notice)
}

// Pending returns the number of queued, undelivered messages
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Close stops accepting messages and waits for the workers to drain the
// queue, or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	started := d.started
	close(d.queue)
	d.mu.Unlock()

	if !started {
		if n := len(d.queue); n > 0 {
			d.logger.Warn().Int("dropped", n).Msg("Dispatcher closed before start, dropping queued notifications")
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info().Msg("Notification dispatcher drained")
		return nil
	case <-ctx.Done():
		d.logger.Warn().Int("pending", len(d.queue)).Msg("Notification dispatcher did not drain in time")
		return ctx.Err()
	}
}
