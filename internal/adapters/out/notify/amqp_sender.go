// Package notify delivers courier push notifications. The AMQP sender hands them to
// the push gateway through a RabbitMQ fanout exchange; the log sender is used when
// no broker is configured.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/jonboulle/clockwork"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the fanout exchange the push gateway binds its queue to.
const DefaultExchange = "dispatch.push"

var ErrSenderIsClosed = errors.New("notification sender is closed")

// publisher is the part of *amqp.Channel the sender uses.
type publisher interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// channelOpener opens a fresh channel to the broker.
type channelOpener func() (publisher, error)

// message is the JSON body consumed by the push gateway.
type message struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// AMQPSender implements ports.NotificationSender on top of RabbitMQ. A channel the
// broker closes is dropped and reopened on the next Send.
type AMQPSender struct {
	mu        sync.Mutex
	ch        publisher
	open      channelOpener
	closeConn func() error
	closed    bool
	exchange  string
	clock     clockwork.Clock
	logger    *slog.Logger
}

// DialAMQPSender connects to the broker and declares the durable fanout exchange.
//
// Example:
//
//	sender, err := notify.DialAMQPSender(cfg.AMQPURL, notify.DefaultExchange, clock, logger)
//	if err != nil {
//	    return err
//	}
//	defer sender.Close()
func DialAMQPSender(url, exchange string, clock clockwork.Clock, logger *slog.Logger) (*AMQPSender, error) {
	conn := &connection{url: url}

	sender, err := newAMQPSender(conn.channel, exchange, clock, logger)
	if err != nil {
		_ = conn.close()
		return nil, err
	}
	sender.closeConn = conn.close
	return sender, nil
}

func newAMQPSender(open channelOpener, exchange string, clock clockwork.Clock, logger *slog.Logger) (*AMQPSender, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	s := &AMQPSender{
		open:     open,
		exchange: exchange,
		clock:    clock,
		logger:   logger.With("component", "amqp_sender"),
	}
	if err := s.connect(); err != nil {
		return nil, err
	}
	return s, nil
}

// connect opens a channel, declares the exchange on it and watches it for closure.
// It must be called with mu held or before the sender is shared.
func (s *AMQPSender) connect() error {
	ch, err := s.open()
	if err != nil {
		return err
	}

	if err = ch.ExchangeDeclare(s.exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", s.exchange, err)
	}

	closes := ch.NotifyClose(make(chan *amqp.Error, 1))
	s.ch = ch
	go s.watch(ch, closes)
	return nil
}

// watch drops ch once it is closed, unless Close or a reconnect replaced it first.
func (s *AMQPSender) watch(ch publisher, closes <-chan *amqp.Error) {
	reason, ok := <-closes

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch != ch {
		return
	}
	s.ch = nil

	if ok && reason != nil {
		s.logger.Warn("AMQP channel closed by broker, reopening on next send",
			"code", reason.Code, "reason", reason.Reason)
		return
	}
	s.logger.Warn("AMQP channel closed, reopening on next send")
}

// Send publishes one persistent message per notification. Publishing is serialized
// because an AMQP channel is not safe for concurrent use.
func (s *AMQPSender) Send(ctx context.Context, n ports.Notification) error {
	if n.Token == "" {
		return errs.NewValueIsRequiredError("token")
	}

	body, err := json.Marshal(message(n))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSenderIsClosed
	}
	if s.ch == nil {
		if err = s.connect(); err != nil {
			return fmt.Errorf("failed to reopen notification channel: %w", err)
		}
		s.logger.InfoContext(ctx, "AMQP channel reopened", "exchange", s.exchange)
	}

	if err = s.ch.PublishWithContext(ctx, s.exchange, "", false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    s.clock.Now().UTC(),
		Body:         body,
	}); err != nil {
		if errors.Is(err, amqp.ErrClosed) {
			s.ch = nil
		}
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	s.logger.DebugContext(ctx, "Notification published", "exchange", s.exchange)
	return nil
}

// Close closes the channel and the connection. Further sends fail with ErrSenderIsClosed.
func (s *AMQPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.ch != nil {
		ch := s.ch
		s.ch = nil
		err = ch.Close()
	}
	if s.closeConn != nil {
		err = errors.Join(err, s.closeConn())
	}
	return err
}

// connection hands out channels, redialing the broker once the connection is gone.
type connection struct {
	url  string
	mu   sync.Mutex
	conn *amqp.Connection
}

func (c *connection) channel() (publisher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.conn.IsClosed() {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to broker: %w", err)
		}
		c.conn = conn
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return ch, nil
}

func (c *connection) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}
