// Package broadcast decouples domain packages from the websocket layer:
// the webserver registers a Broadcaster at startup and domain code
// pushes events through it without importing the webserver.
package broadcast

import "sync"

// Broadcaster pushes an event to every connected client.
type Broadcaster interface {
	BroadcastMessage(msgType string, data interface{})
}

var (
	mu          sync.RWMutex
	broadcaster Broadcaster
)

// SetBroadcaster registers the active broadcaster. Called once by the
// webserver during startup.
func SetBroadcaster(b Broadcaster) {
	mu.Lock()
	defer mu.Unlock()
	broadcaster = b
}

// Send pushes an event through the registered broadcaster. A nil
// broadcaster (tests, early startup) drops the event.
func Send(msgType string, data interface{}) {
	mu.RLock()
	b := broadcaster
	mu.RUnlock()
	if b != nil {
		b.BroadcastMessage(msgType, data)
	}
}
