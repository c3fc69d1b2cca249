package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"expensetracker/internal/logger"
)

// Publisher sends an event body under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// AMQPClient publishes events to a durable direct exchange.
type AMQPClient struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// NewAMQPClient dials url and declares exchange.
func NewAMQPClient(url, exchange string) (*AMQPClient, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPClient{conn: conn, channel: channel, exchange: exchange}, nil
}

// Publish implements Publisher.
func (c *AMQPClient) Publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Close closes the channel and the connection.
func (c *AMQPClient) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Event is the message body published for a topic notification.
type Event struct {
	Topic      string         `json:"topic"`
	Owner      string         `json:"owner"`
	Message    string         `json:"message"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// DefaultEventBuffer is the number of events an EventPublisher holds while
// the broker is slow.
const DefaultEventBuffer = 256

type outgoingEvent struct {
	topic string
	owner string
	body  []byte
}

// EventPublisher forwards notifications that carry a topic to a Publisher.
// Plain toasts are ignored. Events are published by a single background
// worker; Notify never waits for the broker and drops events when the
// buffer is full.
type EventPublisher struct {
	pub Publisher

	mu     sync.RWMutex
	closed bool
	events chan outgoingEvent
	done   chan struct{}
}

// NewEventPublisher creates an EventPublisher over pub buffering up to
// capacity events; capacity <= 0 selects DefaultEventBuffer.
func NewEventPublisher(pub Publisher, capacity int) *EventPublisher {
	if capacity <= 0 {
		capacity = DefaultEventBuffer
	}
	p := &EventPublisher{
		pub:    pub,
		events: make(chan outgoingEvent, capacity),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *EventPublisher) run() {
	defer close(p.done)
	for ev := range p.events {
		if err := p.pub.Publish(context.Background(), ev.topic, ev.body); err != nil {
			logger.Get().Warnw("failed to publish event", "error", err, "topic", ev.topic, "owner", ev.owner)
		}
	}
}

// Notify implements Notifier.
func (p *EventPublisher) Notify(_ context.Context, n Notification) {
	if n.Topic == "" {
		return
	}

	body, err := json.Marshal(Event{
		Topic:      n.Topic,
		Owner:      n.Owner,
		Message:    n.Message,
		Payload:    n.Payload,
		OccurredAt: n.CreatedAt,
	})
	if err != nil {
		logger.Get().Errorw("failed to marshal event", "error", err, "topic", n.Topic)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		logger.Get().Warnw("event publisher closed, dropping event", "topic", n.Topic, "owner", n.Owner)
		return
	}
	select {
	case p.events <- outgoingEvent{topic: n.Topic, owner: n.Owner, body: body}:
	default:
		logger.Get().Warnw("event buffer full, dropping event", "topic", n.Topic, "owner", n.Owner)
	}
}

// Close stops accepting events and waits until the buffered ones are
// published or ctx is done.
func (p *EventPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain events: %w", ctx.Err())
	}
}
