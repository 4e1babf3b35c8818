package localdb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ignmarket/listing-bot/internal/listing"
	"github.com/ignmarket/listing-bot/internal/shared/logger"
	"github.com/ignmarket/listing-bot/internal/types"
	"go.uber.org/zap"
)

// ErrNotFound is returned for publication ids with no stored listing.
var ErrNotFound = errors.New("listing not found")

// Store persists published listings keyed by publication id.
// Read-modify-write operations on the same key are serialized; distinct
// keys proceed independently.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing mutations for one publication
// id. Locks are never removed; the key space is bounded by live
// listings plus recently deleted ones.
func (s *Store) keyLock(publicationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[publicationID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[publicationID] = l
	}
	return l
}

// Create stores a newly published listing.
func (s *Store) Create(l *listing.Listing) error {
	statsJSON, err := json.Marshal(l.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode listing stats: %w", err)
	}
	colorsJSON, err := json.Marshal(l.Colors)
	if err != nil {
		return fmt.Errorf("failed to encode listing colors: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO listings (
			publication_id, seller_id, seller_name, community_id, channel_id,
			identity, buy_now_price, current_offer, notes, stats_json, colors_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.PublicationID, l.SellerID, l.SellerName, l.CommunityID, l.ChannelID,
		l.Identity, l.BuyNowPrice, l.CurrentOffer, l.Notes,
		string(statsJSON), string(colorsJSON), l.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to store listing: %w", err)
	}
	return nil
}

func scanListing(row interface{ Scan(...any) error }) (*listing.Listing, error) {
	var l listing.Listing
	var statsJSON, colorsJSON, createdAt string
	err := row.Scan(
		&l.PublicationID, &l.SellerID, &l.SellerName, &l.CommunityID, &l.ChannelID,
		&l.Identity, &l.BuyNowPrice, &l.CurrentOffer, &l.Notes,
		&statsJSON, &colorsJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}

	if err := json.Unmarshal([]byte(statsJSON), &l.Stats); err != nil {
		logger.Warn("Malformed stats document on listing",
			zap.String("publication_id", l.PublicationID), zap.Error(err))
	}
	if err := json.Unmarshal([]byte(colorsJSON), &l.Colors); err != nil {
		logger.Warn("Malformed colors document on listing",
			zap.String("publication_id", l.PublicationID), zap.Error(err))
		l.Colors = types.CustomColors{}
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		l.CreatedAt = t
	}
	return &l, nil
}

const listingColumns = `publication_id, seller_id, seller_name, community_id, channel_id,
	identity, buy_now_price, current_offer, notes, stats_json, colors_json, created_at`

// Get fetches one listing by publication id.
func (s *Store) Get(publicationID string) (*listing.Listing, error) {
	row := s.db.QueryRow(`SELECT `+listingColumns+` FROM listings WHERE publication_id = ?`, publicationID)
	return scanListing(row)
}

// Mutate runs a serialized read-modify-write on one listing. The
// mutation sees the current stored state; returning an error aborts
// without writing.
func (s *Store) Mutate(publicationID string, fn func(*listing.Listing) error) (*listing.Listing, error) {
	lock := s.keyLock(publicationID)
	lock.Lock()
	defer lock.Unlock()

	l, err := s.Get(publicationID)
	if err != nil {
		return nil, err
	}
	if err := fn(l); err != nil {
		return nil, err
	}

	statsJSON, err := json.Marshal(l.Stats)
	if err != nil {
		return nil, fmt.Errorf("failed to encode listing stats: %w", err)
	}
	colorsJSON, err := json.Marshal(l.Colors)
	if err != nil {
		return nil, fmt.Errorf("failed to encode listing colors: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE listings SET
			seller_name = ?, identity = ?, buy_now_price = ?, current_offer = ?,
			notes = ?, stats_json = ?, colors_json = ?
		WHERE publication_id = ?`,
		l.SellerName, l.Identity, l.BuyNowPrice, l.CurrentOffer,
		l.Notes, string(statsJSON), string(colorsJSON), l.PublicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	return l, nil
}

// Take removes one listing after check approves it. Check and delete
// run under the listing's key lock, so of two concurrent takers only
// one ever sees the record.
func (s *Store) Take(publicationID string, check func(*listing.Listing) error) (*listing.Listing, error) {
	lock := s.keyLock(publicationID)
	lock.Lock()
	defer lock.Unlock()

	l, err := s.Get(publicationID)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(l); err != nil {
			return nil, err
		}
	}
	if _, err := s.db.Exec(`DELETE FROM listings WHERE publication_id = ?`, publicationID); err != nil {
		return nil, fmt.Errorf("failed to delete listing: %w", err)
	}
	return l, nil
}

// Delete removes a listing. Deleting an absent id returns ErrNotFound.
func (s *Store) Delete(publicationID string) error {
	lock := s.keyLock(publicationID)
	lock.Lock()
	defer lock.Unlock()

	res, err := s.db.Exec(`DELETE FROM listings WHERE publication_id = ?`, publicationID)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) queryListings(query string, args ...any) ([]*listing.Listing, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var out []*listing.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// All returns every stored listing, newest first.
func (s *Store) All() ([]*listing.Listing, error) {
	return s.queryListings(`SELECT ` + listingColumns + ` FROM listings ORDER BY created_at DESC`)
}

// BySeller returns one seller's listings in a community, newest first.
func (s *Store) BySeller(communityID, sellerID string) ([]*listing.Listing, error) {
	return s.queryListings(
		`SELECT `+listingColumns+` FROM listings WHERE community_id = ? AND seller_id = ? ORDER BY created_at DESC`,
		communityID, sellerID)
}

// Count returns the total number of stored listings.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM listings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return n, nil
}

// CountByCommunity returns the number of listings in one community.
func (s *Store) CountByCommunity(communityID string) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM listings WHERE community_id = ?`, communityID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return n, nil
}

// CountCommunities returns the number of distinct communities that
// currently have at least one listing.
func (s *Store) CountCommunities() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(DISTINCT community_id) FROM listings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count communities: %w", err)
	}
	return n, nil
}
