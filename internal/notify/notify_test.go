package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"expensetracker/internal/logger"
)

type published struct {
	key  string
	body []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, key string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{key: key, body: body})
	return nil
}

func TestQueue_DrainOldestFirst(t *testing.T) {
	q := NewQueue(2)
	ctx := context.Background()

	q.Notify(ctx, Success("one"))
	q.Notify(ctx, Success("two"))
	q.Notify(ctx, Success("three"))

	got := q.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Message)
	assert.Equal(t, "three", got[1].Message)
	assert.Empty(t, q.Drain())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_Subscribe(t *testing.T) {
	q := NewQueue(4)
	ch, cancel := q.Subscribe()

	q.Notify(context.Background(), Warning("careful"))
	n := <-ch
	assert.Equal(t, KindWarning, n.Kind)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open, "channel should be closed after cancel")

	q.Notify(context.Background(), Success("after cancel"))
	assert.Equal(t, 2, q.Len())
}

func TestMulti(t *testing.T) {
	a, b := NewQueue(5), NewQueue(5)
	Multi{a, nil, b}.Notify(context.Background(), Error("boom"))

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewLogSink(zap.New(core).Sugar())

	sink.Notify(context.Background(), Error("Failed to add expense"))
	sink.Notify(context.Background(), Warning("80%").WithEvent(TopicBudgetWarning, "u1", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, TopicBudgetWarning, entries[1].ContextMap()["topic"])
}

func TestEventPublisher(t *testing.T) {
	t.Run("publishes topic notifications", func(t *testing.T) {
		pub := &fakePublisher{}
		ep := NewEventPublisher(pub, 0)

		ep.Notify(context.Background(), Success("Expense added successfully!"))
		ep.Notify(context.Background(), Success("Expense added successfully!").
			WithEvent(TopicExpenseAdded, "user-1", map[string]any{"amount": "12.5"}))
		require.NoError(t, ep.Close(context.Background()))

		require.Len(t, pub.msgs, 1)
		assert.Equal(t, TopicExpenseAdded, pub.msgs[0].key)

		var ev Event
		require.NoError(t, json.Unmarshal(pub.msgs[0].body, &ev))
		assert.Equal(t, "user-1", ev.Owner)
		assert.Equal(t, "12.5", ev.Payload["amount"])
	})

	t.Run("swallows publish failures", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		restore := logger.Replace(zap.New(core).Sugar())
		defer restore()

		ep := NewEventPublisher(&fakePublisher{err: errors.New("channel closed")}, 0)
		ep.Notify(context.Background(), Error("over").WithEvent(TopicBudgetExceeded, "u", nil))
		require.NoError(t, ep.Close(context.Background()))

		assert.Equal(t, 1, logs.FilterMessage("failed to publish event").Len())
	})

	t.Run("does not wait for a stuck broker", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		restore := logger.Replace(zap.New(core).Sugar())
		defer restore()

		pub := &blockingPublisher{release: make(chan struct{})}
		ep := NewEventPublisher(pub, 1)

		start := time.Now()
		for i := 0; i < 5; i++ {
			ep.Notify(context.Background(), Success("added").WithEvent(TopicExpenseAdded, "u", nil))
		}
		assert.Less(t, time.Since(start), time.Second)
		assert.Positive(t, logs.FilterMessage("event buffer full, dropping event").Len())

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, ep.Close(ctx), context.DeadlineExceeded)

		close(pub.release)
		require.NoError(t, ep.Close(context.Background()))
	})

	t.Run("close drains buffered events", func(t *testing.T) {
		pub := &fakePublisher{}
		ep := NewEventPublisher(pub, 10)
		for i := 0; i < 3; i++ {
			ep.Notify(context.Background(), Success("deleted").WithEvent(TopicExpenseDeleted, "u", nil))
		}
		require.NoError(t, ep.Close(context.Background()))
		assert.Len(t, pub.msgs, 3)

		ep.Notify(context.Background(), Success("late").WithEvent(TopicExpenseDeleted, "u", nil))
		assert.Len(t, pub.msgs, 3)
	})
}

// blockingPublisher holds every Publish until release is closed.
type blockingPublisher struct {
	release chan struct{}
}

func (b *blockingPublisher) Publish(ctx context.Context, _ string, _ []byte) error {
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
