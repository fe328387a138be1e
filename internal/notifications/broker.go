package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/abodd44/hashdocker-document-hub/pkg/logger"
)

// subscriberBuffer is how many notifications a slow subscriber may lag behind.
const subscriberBuffer = 16

// Broker fans created notifications out to live subscribers of a user.
type Broker interface {
	Publish(ctx context.Context, n *Notification) error
	Subscribe(ctx context.Context, userID string) (*Subscription, error)
}

// Subscription delivers a user's notifications on C until Close.
type Subscription struct {
	C <-chan *Notification

	once    sync.Once
	closeFn func()
}

func (s *Subscription) Close() {
	s.once.Do(s.closeFn)
}

// MemoryBroker delivers within a single process.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan *Notification]struct{}
}

var _ Broker = (*MemoryBroker)(nil)

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[chan *Notification]struct{})}
}

func (b *MemoryBroker) Publish(ctx context.Context, n *Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[n.UserID] {
		select {
		case ch <- n.clone():
		default:
			logger.Debugf("notification %s dropped for slow subscriber of %s", n.ID, n.UserID)
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	ch := make(chan *Notification, subscriberBuffer)
	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan *Notification]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	return &Subscription{C: ch, closeFn: func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[userID], ch)
		if len(b.subs[userID]) == 0 {
			delete(b.subs, userID)
		}
		close(ch)
	}}, nil
}

// Subscribers returns the number of open subscriptions of a user.
func (b *MemoryBroker) Subscribers(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}

// RedisBroker publishes on the channel "<prefix><userID>" so that every
// replica can stream to the users connected to it.
type RedisBroker struct {
	client *redis.Client
	prefix string
}

var _ Broker = (*RedisBroker)(nil)

// NewRedisBroker creates a pub/sub broker. Prefix defaults to "notifications:".
func NewRedisBroker(client *redis.Client, prefix string) *RedisBroker {
	if prefix == "" {
		prefix = "notifications:"
	}
	return &RedisBroker{client: client, prefix: prefix}
}

func (b *RedisBroker) channel(userID string) string {
	return b.prefix + userID
}

func (b *RedisBroker) Publish(ctx context.Context, n *Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel(n.UserID), payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	ps := b.client.Subscribe(ctx, b.channel(userID))
	// wait for the subscription to be confirmed so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel(userID), err)
	}

	out := make(chan *Notification, subscriberBuffer)
	done := make(chan struct{})
	msgs := ps.Channel()
	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					logger.Warnf("bad notification payload on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- &n:
				case <-done:
					return
				}
			}
		}
	}()

	return &Subscription{C: out, closeFn: func() {
		close(done)
		if err := ps.Close(); err != nil {
			logger.Debugf("close pubsub %s: %v", b.channel(userID), err)
		}
	}}, nil
}
