package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"

	"github.com/cppla/blogpub/utils"
)

const (
	defaultQueueSize    = 256
	defaultDrainTimeout = 5 * time.Second
)

var (
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("event publisher is closed")
	// ErrQueueFull is returned when the broker cannot keep up.
	ErrQueueFull = errors.New("event queue is full")
)

type outgoing struct {
	routingKey string
	msg        amqp.Publishing
}

// AMQPPublisher publishes events to a durable topic exchange. Publish only
// enqueues; a single goroutine owns the amqp channel and does the sends, so
// a stalled broker never blocks callers.
type AMQPPublisher struct {
	send         func(routingKey string, msg amqp.Publishing) error
	closeConn    func() error
	queue        chan outgoing
	done         chan struct{}
	drainTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewAMQPPublisher connects to RabbitMQ, declares the exchange and starts the
// send loop.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	send := func(routingKey string, msg amqp.Publishing) error {
		return ch.Publish(
			exchange,   // exchange
			routingKey, // routing key
			false,      // mandatory
			false,      // immediate
			msg,
		)
	}
	closeConn := func() error {
		var errs []error
		if err := ch.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
		return errors.Join(errs...)
	}
	return newAMQPPublisher(send, closeConn, defaultQueueSize), nil
}

func newAMQPPublisher(send func(string, amqp.Publishing) error, closeConn func() error, size int) *AMQPPublisher {
	p := &AMQPPublisher{
		send:         send,
		closeConn:    closeConn,
		queue:        make(chan outgoing, size),
		done:         make(chan struct{}),
		drainTimeout: defaultDrainTimeout,
	}
	go p.run()
	return p
}

func (p *AMQPPublisher) run() {
	defer close(p.done)
	for out := range p.queue {
		if err := p.send(out.routingKey, out.msg); err != nil {
			utils.Sugar.Warnw("failed to publish event", "type", out.routingKey, "err", err)
		}
	}
}

// Publish queues e as a persistent JSON message routed by its type. It never
// waits on the broker.
func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	out := outgoing{
		routingKey: e.Type,
		msg: amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- out:
		return nil
	default:
		return fmt.Errorf("%w: dropped %s", ErrQueueFull, e.Type)
	}
}

// Close stops accepting events, waits up to the drain timeout for queued ones
// and then closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	timer := time.NewTimer(p.drainTimeout)
	defer timer.Stop()
	select {
	case <-p.done:
	case <-timer.C:
		utils.Sugar.Warnw("event queue not drained before close", "pending", len(p.queue))
	}
	return p.closeConn()
}
