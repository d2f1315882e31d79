package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrOutboxEmpty is returned by Outbox.Next when no job arrived in time.
var ErrOutboxEmpty = errors.New("notify: outbox empty")

// Outbox queues messages as JSON jobs on a Redis list. Producers LPUSH and a
// worker pops from the other end, so jobs are delivered in order.
type Outbox struct {
	redis redis.UniversalClient
	key   string
	now   func() time.Time
}

// NewOutbox uses key as the list name; empty means "goaccount:outbox".
func NewOutbox(client redis.UniversalClient, key string) *Outbox {
	if key == "" {
		key = "goaccount:outbox"
	}
	return &Outbox{redis: client, key: key, now: time.Now}
}

// Send enqueues msg.
func (o *Outbox) Send(ctx context.Context, msg Message) error {
	msg.QueuedAt = o.now().UTC()
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := o.redis.LPush(ctx, o.key, payload).Err(); err != nil {
		return fmt.Errorf("notify: enqueue: %w", err)
	}
	return nil
}

// Next blocks up to timeout for the oldest job.
func (o *Outbox) Next(ctx context.Context, timeout time.Duration) (Message, error) {
	res, err := o.redis.BRPop(ctx, timeout, o.key).Result()
	if errors.Is(err, redis.Nil) {
		return Message{}, ErrOutboxEmpty
	}
	if err != nil {
		return Message{}, fmt.Errorf("notify: dequeue: %w", err)
	}

	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return Message{}, fmt.Errorf("notify: decode job: %w", err)
	}
	return msg, nil
}

// Len reports the number of queued jobs.
func (o *Outbox) Len(ctx context.Context) (int64, error) {
	return o.redis.LLen(ctx, o.key).Result()
}

// Relay moves jobs from an Outbox to a Sender until its context ends.
type Relay struct {
	outbox *Outbox
	sender Sender
	logger *slog.Logger
	poll   time.Duration
}

func NewRelay(outbox *Outbox, sender Sender, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Relay{outbox: outbox, sender: sender, logger: logger, poll: time.Second}
}

// Run delivers jobs until ctx is cancelled. A job whose delivery fails is
// logged and dropped; the Sender is expected to have retried already.
func (r *Relay) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if _, err := r.Step(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "outbox relay", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
			case <-time.After(r.poll):
			}
		}
	}
}

// Step delivers at most one job and reports whether one was taken.
func (r *Relay) Step(ctx context.Context) (bool, error) {
	msg, err := r.outbox.Next(ctx, r.poll)
	if errors.Is(err, ErrOutboxEmpty) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := r.sender.Send(ctx, msg); err != nil {
		return true, fmt.Errorf("notify: deliver %s to %s: %w", msg.Kind, msg.To, err)
	}
	return true, nil
}
