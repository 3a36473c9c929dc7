package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Client publishes and consumes plan update events on a durable direct
// exchange. A broken connection is re-dialed lazily on the next call.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time

	// sleep replaces the real wait in pause when set.
	sleep func(context.Context, time.Duration) error
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if _, err := c.ensureChannel(); err != nil {
		return nil, err
	}
	return c, nil
}

// ensureChannel returns the open channel, dialing again when the previous
// connection has gone away.
func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	c.conn = conn
	c.channel = channel
	return channel, nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key is the queue name
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishPlanUpdated publishes a persistent JSON event for one category change.
func (c *Client) PublishPlanUpdated(ctx context.Context, msg *PlanUpdatedMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish plan update: %w", ErrCircuitOpen)
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := c.ensureChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.dropConnection()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	slog.DebugContext(ctx, "Published plan update",
		"category", msg.Category,
		"amount", msg.Amount,
		"source", msg.Source,
		"exchange", c.exchangeName)
	return nil
}

// ConsumePlanUpdates delivers events to handler until ctx is done. Malformed
// bodies are rejected without requeue and handler errors are requeued after a
// delay. When the delivery channel closes the client reconnects with
// exponential backoff, which restarts from the minimum once a session has
// received deliveries.
func (c *Client) ConsumePlanUpdates(ctx context.Context, handler func(context.Context, *PlanUpdatedMessage) error) error {
	attempt := 0
	for {
		received, err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		if received {
			attempt = 0
		}
		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "Consumer interrupted, reconnecting",
			"error", err,
			"attempt", attempt+1,
			"backoff", wait)
		c.dropConnection()

		if err := c.pause(ctx, wait); err != nil {
			return err
		}
		attempt++
	}
}

// consumeOnce runs one consume session and reports whether any delivery
// arrived before it ended.
func (c *Client) consumeOnce(ctx context.Context, handler func(context.Context, *PlanUpdatedMessage) error) (bool, error) {
	ch, err := c.ensureChannel()
	if err != nil {
		return false, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return false, fmt.Errorf("set prefetch: %w", err)
	}
	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return false, fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming plan updates", "queue", c.queueName)

	received := false
	var failures int
	for {
		select {
		case <-ctx.Done():
			return received, ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return received, errors.New("message channel closed")
			}
			received = true
			c.process(ctx, delivery, handler, &failures)
		}
	}
}

// process handles one delivery. A handler failure is requeued only after a
// delay that grows with the number of consecutive failures, so a persistent
// downstream error does not spin on the same message.
func (c *Client) process(ctx context.Context, delivery amqp091.Delivery, handler func(context.Context, *PlanUpdatedMessage) error, failures *int) {
	msg, err := PlanUpdatedMessageFromJSON(delivery.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		wait := exponentialBackoff(*failures)
		*failures++
		slog.ErrorContext(ctx, "Failed to handle plan update",
			"error", err,
			"category", msg.Category,
			"consecutive_failures", *failures,
			"requeue_after", wait)
		_ = c.pause(ctx, wait)
		_ = delivery.Nack(false, true)
		return
	}

	*failures = 0
	_ = delivery.Ack(false)
	slog.DebugContext(ctx, "Processed plan update",
		"category", msg.Category,
		"amount", msg.Amount)
}

// pause waits for d or until ctx is done.
func (c *Client) pause(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		return c.sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff doubles from one second and caps at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) dropConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}
