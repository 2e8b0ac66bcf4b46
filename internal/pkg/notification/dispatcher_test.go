package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/samenactief/backend/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu       sync.Mutex
	sent     []Message
	failures int // fail this many calls before succeeding
	calls    int
	block    chan struct{}
}

func (s *recordingSender) Name() string { return "recording" }

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

func testNotice() Notice {
	return Notice{
		ContactAddress: "an@buurt.nl",
		DisplayName:    "An",
		ActivityName:   "Koffieochtend",
		ActivityDate:   time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC),
		LocationText:   "Buurthuis De Linde",
	}
}

func TestDispatcher_DeliversQueuedMessages(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, Options{Workers: 2, QueueSize: 8}, zerolog.Nop())
	d.Start()

	require.NoError(t, d.SendRegistrationConfirmation(context.Background(), testNotice()))
	require.NoError(t, d.SendWaitlistPromotion(context.Background(), testNotice()))
	require.NoError(t, d.Close(context.Background()))

	msgs := sender.messages()
	require.Len(t, msgs, 2)
	kinds := []Kind{msgs[0].Kind, msgs[1].Kind}
	assert.ElementsMatch(t, []Kind{KindRegistrationConfirmation, KindWaitlistPromotion}, kinds)
	for _, m := range msgs {
		assert.Equal(t, "an@buurt.nl", m.To)
		assert.NotEmpty(t, m.ID)
		assert.Contains(t, m.Subject, "Koffieochtend")
	}
}

func TestDispatcher_RetriesFailedSends(t *testing.T) {
	sender := &recordingSender{failures: 2}
	d := NewDispatcher(sender, Options{Workers: 1, QueueSize: 1, MaxAttempts: 3, RetryBackoff: time.Millisecond}, zerolog.Nop())
	d.Start()

	require.NoError(t, d.SendRegistrationConfirmation(context.Background(), testNotice()))
	require.NoError(t, d.Close(context.Background()))

	assert.Len(t, sender.messages(), 1)
	assert.Equal(t, 3, sender.calls)
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	sender := &recordingSender{failures: 10}
	d := NewDispatcher(sender, Options{Workers: 1, QueueSize: 1, MaxAttempts: 2, RetryBackoff: time.Millisecond}, zerolog.Nop())
	d.Start()

	require.NoError(t, d.SendRegistrationConfirmation(context.Background(), testNotice()))
	require.NoError(t, d.Close(context.Background()))

	assert.Empty(t, sender.messages())
	assert.Equal(t, 2, sender.calls)
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	sender := &recordingSender{}
	// not started: nothing drains the queue
	d := NewDispatcher(sender, Options{Workers: 1, QueueSize: 1}, zerolog.Nop())

	require.NoError(t, d.SendRegistrationConfirmation(context.Background(), testNotice()))
	err := d.SendRegistrationConfirmation(context.Background(), testNotice())

	assert.ErrorIs(t, err, ErrQueueFull)
	assert.ErrorIs(t, err, apperrors.ErrNotificationDeliveryFailed)
	assert.Equal(t, 1, d.Pending())
}

func TestDispatcher_EnqueueAfterCloseFails(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, Options{}, zerolog.Nop())
	d.Start()
	require.NoError(t, d.Close(context.Background()))

	err := d.SendWaitlistPromotion(context.Background(), testNotice())
	assert.ErrorIs(t, err, ErrDispatcherClosed)

	// second close is a no-op
	assert.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_CloseHonoursContext(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d := NewDispatcher(sender, Options{Workers: 1, QueueSize: 4}, zerolog.Nop())
	d.Start()
	require.NoError(t, d.SendRegistrationConfirmation(context.Background(), testNotice()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(sender.block)
}

func TestDispatcher_RejectsMissingAddress(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, Options{}, zerolog.Nop())
	notice := testNotice()
	notice.ContactAddress = ""

	err := d.SendRegistrationConfirmation(context.Background(), notice)
	assert.ErrorIs(t, err, apperrors.ErrNotificationDeliveryFailed)
	assert.Zero(t, d.Pending())
}
