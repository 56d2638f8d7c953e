package events

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrBrokerStopped is returned by Send after the broker has shut down
var ErrBrokerStopped = errors.New("events: broker stopped")

// Message is one published notification on a broadcast channel
type Message struct {
	Channel string
	Name    string
	Payload any
	SentAt  time.Time
}

// Transport is the pub/sub surface the engine publishes through. The
// in-process Broker implements it; a remote transport can be swapped in
// without touching the engine.
type Transport interface {
	Send(channel, name string, payload any) error
	Subscribe(channel string) (*Subscription, error)
}

// Subscription is one consumer's attachment to a broadcast channel.
// Messages arrive on C; Done is closed when the subscription drops,
// whether by Unsubscribe or broker shutdown.
type Subscription struct {
	broker  *Broker
	channel string
	c       chan Message
	done    chan struct{}
	once    sync.Once
}

// C returns the message delivery channel
func (s *Subscription) C() <-chan Message {
	return s.c
}

// Done is closed when the subscription is no longer receiving
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Unsubscribe detaches from the channel and closes Done
func (s *Subscription) Unsubscribe() {
	s.broker.remove(s)
}

func (s *Subscription) close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Broker manages channel subscriptions and best-effort distribution
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscription]bool
	msgCh       chan Message
	stopCh      chan struct{}
	stopped     bool
	dropped     atomic.Int64
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string]map[*Subscription]bool),
		msgCh:       make(chan Message, 100), // Buffer up to 100 messages
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker and drops all subscriptions
func (b *Broker) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	for _, subs := range b.subscribers {
		for sub := range subs {
			sub.close()
		}
	}
	b.subscribers = make(map[string]map[*Subscription]bool)
	b.mu.Unlock()

	close(b.stopCh)
}

// Subscribe attaches a new consumer to a broadcast channel
func (b *Broker) Subscribe(channel string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return nil, ErrBrokerStopped
	}

	sub := &Subscription{
		broker:  b,
		channel: channel,
		c:       make(chan Message, 50), // Buffer per subscriber
		done:    make(chan struct{}),
	}
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[*Subscription]bool)
	}
	b.subscribers[channel][sub] = true
	return sub, nil
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs := b.subscribers[sub.channel]; subs != nil {
		delete(subs, sub)
	}
	sub.close()
}

// Send publishes a message to every subscriber of the channel.
// Delivery is best-effort: a subscriber whose buffer is full misses
// the message.
func (b *Broker) Send(channel, name string, payload any) error {
	msg := Message{
		Channel: channel,
		Name:    name,
		Payload: payload,
		SentAt:  time.Now(),
	}

	select {
	case <-b.stopCh:
		return ErrBrokerStopped
	default:
	}

	select {
	case b.msgCh <- msg:
		return nil
	case <-b.stopCh:
		return ErrBrokerStopped
	}
}

func (b *Broker) run() {
	for {
		select {
		case msg := <-b.msgCh:
			b.broadcast(msg)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers[msg.Channel] {
		select {
		case sub.c <- msg:
		default:
			// Subscriber buffer full, skip
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many messages were skipped because a subscriber
// buffer was full
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}

// SubscriberCount returns the number of active subscribers on a channel
func (b *Broker) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[channel])
}
