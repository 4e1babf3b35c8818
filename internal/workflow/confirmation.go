package workflow

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrConfirmationExpired is returned for confirmation ids that are
// unknown, already used, or timed out.
var ErrConfirmationExpired = errors.New("confirmation expired")

// ErrNotYourConfirmation is returned when someone other than the actor
// who opened a confirmation tries to resolve it.
var ErrNotYourConfirmation = errors.New("confirmation belongs to another user")

type confirmationKind string

const (
	confirmBuyNow confirmationKind = "buy_now"
	confirmOffer  confirmationKind = "offer"
)

// Confirmation is a pending two-step transaction. It is single-use:
// confirming or cancelling consumes it.
type Confirmation struct {
	ID            string           `json:"id"`
	Kind          confirmationKind `json:"kind"`
	PublicationID string           `json:"publication_id"`
	ActorID       string           `json:"actor_id"`
	ActorName     string           `json:"actor_name"`
	OfferText     string           `json:"offer_text,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`

	timer *time.Timer
}

type confirmations struct {
	mu      sync.Mutex
	pending map[string]*Confirmation
	ttl     time.Duration
}

func newConfirmations(ttl time.Duration) *confirmations {
	return &confirmations{
		pending: make(map[string]*Confirmation),
		ttl:     ttl,
	}
}

func (c *confirmations) add(conf *Confirmation) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate confirmation id: %w", err)
	}
	conf.ID = id
	conf.CreatedAt = time.Now()

	c.mu.Lock()
	c.pending[id] = conf
	conf.timer = time.AfterFunc(c.ttl, func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	})
	c.mu.Unlock()
	return id, nil
}

// claim consumes a pending confirmation. The caller must be the actor
// who opened it; a mismatch leaves it pending.
func (c *confirmations) claim(id, actorID string) (*Confirmation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conf, ok := c.pending[id]
	if !ok {
		return nil, ErrConfirmationExpired
	}
	if conf.ActorID != actorID {
		return nil, ErrNotYourConfirmation
	}
	conf.timer.Stop()
	delete(c.pending, id)
	return conf, nil
}

func (c *confirmations) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
