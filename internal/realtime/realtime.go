// Package realtime fans events out to connected users. Each user has a
// channel named user:{id}; the API streams it to the browser over SSE.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Event types pushed to clients.
const (
	EventMessage     = "message.created"
	EventBooking     = "booking.updated"
	subscriberBuffer = 64
)

// Event is one pushed notification.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewEvent marshals v as the event payload.
func NewEvent(typ string, v any) (Event, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s event: %w", typ, err)
	}
	return Event{Type: typ, Data: raw}, nil
}

// SSE renders the event as a server-sent-events frame.
func (e Event) SSE() []byte {
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, e.Data))
}

// Subscription delivers events for one user until closed.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Broker publishes and subscribes per-user events.
type Broker interface {
	Publish(ctx context.Context, userID string, ev Event) error
	Subscribe(ctx context.Context, userID string) (Subscription, error)
}

// Channel returns the pub/sub channel name of a user.
func Channel(userID string) string {
	return "user:" + userID
}

// RedisBroker implements Broker over Redis pub/sub so every API replica can
// reach a user connected to any other.
type RedisBroker struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisBroker creates a RedisBroker.
func NewRedisBroker(rdb *redis.Client, logger zerolog.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, log: logger}
}

func (b *RedisBroker) Publish(ctx context.Context, userID string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, Channel(userID), payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", Channel(userID), err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, userID string) (Subscription, error) {
	ps := b.rdb.Subscribe(ctx, Channel(userID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel(userID), err)
	}
	sub := &redisSubscription{ps: ps, events: make(chan Event, subscriberBuffer)}
	go func() {
		defer close(sub.events)
		for msg := range ps.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn().Err(err).Str("channel", msg.Channel).Msg("drop malformed event")
				continue
			}
			select {
			case sub.events <- ev:
			default:
				b.log.Warn().Str("channel", msg.Channel).Msg("subscriber is slow, dropping event")
			}
		}
	}()
	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan Event
}

func (s *redisSubscription) Events() <-chan Event { return s.events }
func (s *redisSubscription) Close() error         { return s.ps.Close() }

// LocalBroker is an in-process Broker for single-instance deployments.
type LocalBroker struct {
	mu   sync.RWMutex
	subs map[string]map[*localSubscription]struct{}
}

// NewLocalBroker creates an empty LocalBroker.
func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[string]map[*localSubscription]struct{})}
}

func (b *LocalBroker) Publish(_ context.Context, userID string, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs[userID] {
		select {
		case s.events <- ev:
		default:
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(_ context.Context, userID string) (Subscription, error) {
	s := &localSubscription{broker: b, userID: userID, events: make(chan Event, subscriberBuffer)}
	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[*localSubscription]struct{})
	}
	b.subs[userID][s] = struct{}{}
	b.mu.Unlock()
	return s, nil
}

// Subscribers returns how many subscriptions userID has open.
func (b *LocalBroker) Subscribers(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}

type localSubscription struct {
	broker *LocalBroker
	userID string
	events chan Event
	once   sync.Once
}

func (s *localSubscription) Events() <-chan Event { return s.events }

func (s *localSubscription) Close() error {
	s.once.Do(func() {
		b := s.broker
		b.mu.Lock()
		delete(b.subs[s.userID], s)
		if len(b.subs[s.userID]) == 0 {
			delete(b.subs, s.userID)
		}
		close(s.events)
		b.mu.Unlock()
	})
	return nil
}
