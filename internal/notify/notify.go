// Package notify delivers best-effort direct notifications to sellers
// and buyers. Deliveries are queued and processed off the request path;
// failures are logged and never surface to workflow outcomes.
package notify

import (
	"sync"

	"github.com/ignmarket/listing-bot/internal/shared/logger"
	"go.uber.org/zap"
)

// Field is one labeled line in a notification body.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Notification is a direct message to one recipient.
type Notification struct {
	RecipientID string  `json:"recipient_id"`
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	Fields      []Field `json:"fields,omitempty"`
}

// Messenger delivers a notification to its recipient. Implementations
// wrap the chat platform's direct-message API.
type Messenger interface {
	SendDirect(n Notification) error
}

// Notifier queues notifications and delivers them sequentially.
type Notifier struct {
	messenger Messenger
	queue     chan Notification
	done      chan struct{}

	mu      sync.Mutex
	running bool
}

// NewNotifier starts the delivery goroutine.
func NewNotifier(m Messenger) *Notifier {
	n := &Notifier{
		messenger: m,
		queue:     make(chan Notification, 100),
		done:      make(chan struct{}),
	}
	go n.processQueue()
	return n
}

func (n *Notifier) processQueue() {
	n.mu.Lock()
	n.running = true
	n.mu.Unlock()

	for {
		select {
		case msg := <-n.queue:
			if err := n.messenger.SendDirect(msg); err != nil {
				// Recipients can block DMs; the workflow outcome
				// already happened and must not be affected.
				logger.Warn("Failed to deliver notification",
					zap.String("recipient_id", msg.RecipientID),
					zap.String("title", msg.Title),
					zap.Error(err))
			}
		case <-n.done:
			n.mu.Lock()
			n.running = false
			n.mu.Unlock()
			return
		}
	}
}

// Enqueue queues a notification for delivery. A full queue drops the
// notification rather than blocking the caller.
func (n *Notifier) Enqueue(msg Notification) {
	select {
	case n.queue <- msg:
	default:
		logger.Warn("Notification queue full, dropping",
			zap.String("recipient_id", msg.RecipientID),
			zap.String("title", msg.Title))
	}
}

// Shutdown stops the delivery goroutine. Queued notifications that have
// not been delivered yet are dropped.
func (n *Notifier) Shutdown() {
	close(n.done)
}
