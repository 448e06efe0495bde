// Package notify publishes committed profile changes to a message broker.
//
// Publishing is decoupled from the request path: ProfileChanged only queues
// the notice and a single worker started with Run delivers it.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"egresados/internal/platform/metrics"
	"egresados/internal/profile/models"
)

// ErrQueueFull is returned when a notice is dropped because the worker is behind.
var ErrQueueFull = errors.New("profile notice queue is full")

const (
	defaultQueueSize      = 256
	defaultPublishTimeout = 5 * time.Second

	outcomePublished = "published"
	outcomeFailed    = "failed"
	outcomeDropped   = "dropped"
)

// Producer is the subset of the Kafka producer used here.
type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Publisher writes ChangeNotice records keyed by user ID so a user's notices stay ordered.
type Publisher struct {
	producer Producer
	topic    string
	inbox    chan models.ChangeNotice
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithQueueSize bounds the number of notices waiting for delivery.
func WithQueueSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.inbox = make(chan models.ChangeNotice, n)
		}
	}
}

// WithPublishTimeout bounds a single broker write.
func WithPublishTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPublisher(producer Producer, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		inbox:    make(chan models.ChangeNotice, defaultQueueSize),
		timeout:  defaultPublishTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProfileChanged queues notice without waiting for the broker.
func (p *Publisher) ProfileChanged(_ context.Context, notice models.ChangeNotice) error {
	select {
	case p.inbox <- notice:
		return nil
	default:
		p.observe(outcomeDropped)
		return ErrQueueFull
	}
}

// Run delivers queued notices until ctx is cancelled, then flushes what is
// still queued within one publish timeout.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.flush(context.WithoutCancel(ctx))
			return ctx.Err()
		case notice := <-p.inbox:
			p.deliver(ctx, notice)
		}
	}
}

func (p *Publisher) flush(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	for {
		select {
		case notice := <-p.inbox:
			if ctx.Err() != nil {
				p.observe(outcomeDropped)
				continue
			}
			p.deliver(ctx, notice)
		default:
			return
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, notice models.ChangeNotice) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.publish(ctx, notice); err != nil {
		p.observe(outcomeFailed)
		p.logger.WarnContext(ctx, "profile change notification failed",
			"user_id", notice.UserID,
			"topic", p.topic,
			"error", err,
		)
		return
	}
	p.observe(outcomePublished)
}

func (p *Publisher) publish(ctx context.Context, notice models.ChangeNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal profile notice: %w", err)
	}
	return p.producer.Publish(ctx, p.topic, []byte(notice.UserID.String()), payload)
}

func (p *Publisher) observe(outcome string) {
	if p.metrics != nil {
		p.metrics.ObserveProfileNotice(outcome)
	}
}
