package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
)

// Broker is an in-process pub/sub for notification events, keyed by user ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[int64]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[int64]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded notifications for
// the given user.
func (b *Broker) Subscribe(userID int64) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan []byte]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the user's subscribers.
func (b *Broker) Unsubscribe(userID int64, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[userID], ch)
	if len(b.subs[userID]) == 0 {
		delete(b.subs, userID)
	}
	b.mu.Unlock()
}

// Publish sends a notification to all of the user's subscribers.
func (b *Broker) Publish(userID int64, n loyalty.Notification) {
	data, _ := json.Marshal(n)
	b.mu.RLock()
	for ch := range b.subs[userID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// StoreNotifier receives engine facts, persists them, and fans them out over
// the broker. Failures are logged and swallowed; a lost notification never
// fails the operation that produced it.
type StoreNotifier struct {
	logger *slog.Logger
	store  *loyalty.SQLiteStore
	broker *Broker
}

func NewStoreNotifier(logger *slog.Logger, store *loyalty.SQLiteStore, broker *Broker) *StoreNotifier {
	return &StoreNotifier{logger: logger, store: store, broker: broker}
}

func (n *StoreNotifier) Notify(ctx context.Context, notification loyalty.Notification) {
	if err := n.store.SaveNotification(ctx, &notification); err != nil {
		n.logger.Error("saving notification", "type", notification.Type, "error", err)
		return
	}
	n.broker.Publish(notification.UserID, notification)
}
