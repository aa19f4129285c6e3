package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBroker implements EventBroker over Redis Pub/Sub so that every API
// replica sees every plan event.
type RedisBroker struct {
	rdb *redis.Client
	log zerolog.Logger

	mu   sync.Mutex
	subs map[chan Event]*redisSub
}

type redisSub struct {
	ps   *redis.PubSub
	done chan struct{}
}

func NewRedisBroker(url string, log zerolog.Logger) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &RedisBroker{rdb: rdb, log: log, subs: map[chan Event]*redisSub{}}, nil
}

func (b *RedisBroker) Subscribe(topic string) chan Event {
	ch := make(chan Event, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(topic))
	// wait for the subscription confirmation so no publish is lost
	if _, err := ps.Receive(ctx); err != nil {
		b.log.Warn().Err(err).Str("topic", topic).Msg("redis subscribe failed")
	}
	sub := &redisSub{ps: ps, done: make(chan struct{})}
	b.mu.Lock()
	b.subs[ch] = sub
	b.mu.Unlock()

	go func() {
		defer close(sub.done)
		for msg := range ps.Channel() {
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}()
	return ch
}

// Unsubscribe closes the Redis subscription, waits for the forwarder to
// stop, then closes ch.
func (b *RedisBroker) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	sub, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if !ok {
		return
	}
	_ = sub.ps.Close()
	<-sub.done
	close(ch)
}

func (b *RedisBroker) Publish(topic string, evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(evt)
	if err := b.rdb.Publish(ctx, b.chanName(topic), data).Err(); err != nil {
		b.log.Warn().Err(err).Str("topic", topic).Str("event", evt.Type).Msg("redis publish failed")
	}
}

// Ping is used by the readiness probe.
func (b *RedisBroker) Ping(ctx context.Context) error { return b.rdb.Ping(ctx).Err() }

func (b *RedisBroker) Close() error { return b.rdb.Close() }

func (b *RedisBroker) chanName(topic string) string { return "plan:" + topic }
