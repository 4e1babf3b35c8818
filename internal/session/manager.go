// Package session tracks in-progress listing compositions. A session
// owns exactly one draft and moves Collecting -> Previewing ->
// Published or Cancelled; idle sessions expire on a timer.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/ignmarket/listing-bot/internal/broadcast"
	"github.com/ignmarket/listing-bot/internal/listing"
	"github.com/ignmarket/listing-bot/internal/localdb"
	"github.com/ignmarket/listing-bot/internal/settings"
	"github.com/ignmarket/listing-bot/internal/shared/logger"
	"go.uber.org/zap"
)

// ErrSessionExpired is returned for tokens with no live session, whether
// the session timed out, was published, or never existed.
var ErrSessionExpired = errors.New("composition session expired")

// ErrNotPreviewing rejects publishing a session that has not shown the
// seller a preview yet.
var ErrNotPreviewing = errors.New("session has not been previewed")

// State is the composition lifecycle position.
type State string

const (
	StateCollecting State = "collecting"
	StatePreviewing State = "previewing"
	StatePublished  State = "published"
	StateCancelled  State = "cancelled"
)

// Session is one seller's in-progress composition.
type Session struct {
	Token       string         `json:"token"`
	SellerID    string         `json:"seller_id"`
	CommunityID string         `json:"community_id"`
	ChannelID   string         `json:"channel_id"`
	State       State          `json:"state"`
	Draft       *listing.Draft `json:"draft"`
	CreatedAt   time.Time      `json:"created_at"`

	timer    *time.Timer
	deadline time.Time
}

// Manager owns the live sessions and publishes finished drafts into the
// listing store.
type Manager struct {
	store    *localdb.Store
	settings *settings.Manager
	ttl      time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	now func() time.Time
}

func NewManager(store *localdb.Store, settings *settings.Manager, ttl time.Duration) *Manager {
	return &Manager{
		store:    store,
		settings: settings,
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Start opens a new session around a freshly validated draft.
func (m *Manager) Start(sellerID, sellerName, communityID, channelID, identity, buyNow, currentOffer, notes string) (*Session, error) {
	d, err := listing.NewDraft(identity, sellerName, buyNow, currentOffer, notes)
	if err != nil {
		return nil, err
	}

	token, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	s := &Session{
		Token:       token,
		SellerID:    sellerID,
		CommunityID: communityID,
		ChannelID:   channelID,
		State:       StateCollecting,
		Draft:       d,
		CreatedAt:   m.now(),
	}
	s.deadline = s.CreatedAt.Add(m.ttl)
	s.timer = time.AfterFunc(m.ttl, func() { m.expire(token) })

	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()

	logger.Info("Composition session started",
		zap.String("token", token),
		zap.String("seller_id", sellerID),
		zap.String("identity", identity))
	return s, nil
}

// touch pushes the idle deadline out. Callers hold m.mu.
func (m *Manager) touch(s *Session) {
	s.deadline = m.now().Add(m.ttl)
	s.timer.Reset(m.ttl)
}

func (m *Manager) expire(token string) {
	m.mu.Lock()
	s, ok := m.sessions[token]
	if ok {
		// An edit may have raced this callback past its Reset; the
		// deadline is authoritative.
		if remaining := s.deadline.Sub(m.now()); remaining > 0 {
			s.timer.Reset(remaining)
			m.mu.Unlock()
			return
		}
		delete(m.sessions, token)
	}
	m.mu.Unlock()

	if ok {
		logger.Info("Composition session expired",
			zap.String("token", token),
			zap.String("seller_id", s.SellerID))
	}
}

// Get returns a live session.
func (m *Manager) Get(token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionExpired
	}
	return s, nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// edit applies one sub-record edit under the session lock. Any edit,
// including one made while previewing, leaves the session collecting
// again and restarts the idle timer.
func (m *Manager) edit(token string, apply func(*listing.Draft) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionExpired
	}
	if err := apply(s.Draft); err != nil {
		return nil, err
	}
	s.State = StateCollecting
	m.touch(s)
	return s, nil
}

func (m *Manager) EditGeneral(token string, in listing.GeneralInput) (*Session, error) {
	return m.edit(token, func(d *listing.Draft) error { return d.EditGeneral(in) })
}

func (m *Manager) EditBedWars(token string, in listing.RatioStatsInput) (*Session, error) {
	return m.edit(token, func(d *listing.Draft) error { return d.EditBedWars(in) })
}

func (m *Manager) EditSkyWars(token string, in listing.RatioStatsInput) (*Session, error) {
	return m.edit(token, func(d *listing.Draft) error { return d.EditSkyWars(in) })
}

func (m *Manager) EditDuels(token string, in listing.DuelsInput) (*Session, error) {
	return m.edit(token, func(d *listing.Draft) error { return d.EditDuels(in) })
}

func (m *Manager) EditColors(token string, in listing.ColorsInput) (*Session, error) {
	return m.edit(token, func(d *listing.Draft) error { return d.EditColors(in) })
}

// Preview renders the draft with the community's effective settings and
// moves the session to previewing.
func (m *Manager) Preview(token string) (*Session, listing.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, listing.Artifact{}, ErrSessionExpired
	}

	cs, err := m.settings.Get(s.CommunityID)
	if err != nil {
		return nil, listing.Artifact{}, err
	}
	eff := settings.Resolve(&cs, &s.Draft.Colors)

	s.State = StatePreviewing
	m.touch(s)
	return s, listing.RenderDraft(s.Draft, eff, m.now()), nil
}

// Publish freezes the previewed draft into a stored listing keyed by
// the platform message id the presentation layer just posted. The
// session is consumed either way once the listing is stored.
func (m *Manager) Publish(token, publicationID string) (*listing.Listing, listing.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, listing.Artifact{}, ErrSessionExpired
	}
	if s.State != StatePreviewing {
		return nil, listing.Artifact{}, ErrNotPreviewing
	}

	l := s.Draft.Publish(publicationID, s.SellerID, s.CommunityID, s.ChannelID, m.now())
	if err := m.store.Create(l); err != nil {
		return nil, listing.Artifact{}, err
	}

	s.State = StatePublished
	s.timer.Stop()
	delete(m.sessions, token)

	cs, err := m.settings.Get(s.CommunityID)
	if err != nil {
		cs = settings.DefaultSettings()
	}
	eff := settings.Resolve(&cs, &l.Colors)
	art := listing.RenderListing(l, eff, m.now(), false)

	broadcast.Send("listing_published", l)
	logger.Info("Listing published",
		zap.String("publication_id", publicationID),
		zap.String("seller_id", s.SellerID),
		zap.String("identity", l.Identity))
	return l, art, nil
}

// Cancel discards a session and its draft.
func (m *Manager) Cancel(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return ErrSessionExpired
	}
	s.State = StateCancelled
	s.timer.Stop()
	delete(m.sessions, token)

	logger.Info("Composition session cancelled",
		zap.String("token", token),
		zap.String("seller_id", s.SellerID))
	return nil
}
