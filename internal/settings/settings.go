package settings

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignmarket/listing-bot/internal/shared/logger"
	"github.com/ignmarket/listing-bot/internal/types"
	"go.uber.org/zap"
)

// CommunitySettings configures how listings render and behave for one
// community (guild). Absent communities use the defaults wholesale.
type CommunitySettings struct {
	EmbedColor        types.RGB `json:"embed_color"`
	MinimalEmojis     bool      `json:"minimal_emojis"`
	ShowThumbnails    bool      `json:"show_thumbnails"`
	ShowSeparators    bool      `json:"show_separators"`
	ShowDetailedStats bool      `json:"show_detailed_stats"`
	ListingChannel    string    `json:"listing_channel"`
	ModeratorRoles    []string  `json:"moderator_roles"`
	PriceFormat       string    `json:"price_format"`
}

// DefaultSettings returns the global defaults used for communities
// without a stored record.
func DefaultSettings() CommunitySettings {
	return CommunitySettings{
		EmbedColor:        0x5865F2,
		MinimalEmojis:     false,
		ShowThumbnails:    true,
		ShowSeparators:    true,
		ShowDetailedStats: true,
		ListingChannel:    "",
		ModeratorRoles:    []string{},
		PriceFormat:       "USD",
	}
}

// communityDoc mirrors CommunitySettings with pointer fields so a stored
// record that predates a setting merges field-by-field against the
// defaults when read.
type communityDoc struct {
	EmbedColor        *types.RGB `json:"embed_color"`
	MinimalEmojis     *bool      `json:"minimal_emojis"`
	ShowThumbnails    *bool      `json:"show_thumbnails"`
	ShowSeparators    *bool      `json:"show_separators"`
	ShowDetailedStats *bool      `json:"show_detailed_stats"`
	ListingChannel    *string    `json:"listing_channel"`
	ModeratorRoles    []string   `json:"moderator_roles"`
	PriceFormat       *string    `json:"price_format"`
}

func (d *communityDoc) applyTo(cs *CommunitySettings) {
	if d.EmbedColor != nil {
		cs.EmbedColor = *d.EmbedColor
	}
	if d.MinimalEmojis != nil {
		cs.MinimalEmojis = *d.MinimalEmojis
	}
	if d.ShowThumbnails != nil {
		cs.ShowThumbnails = *d.ShowThumbnails
	}
	if d.ShowSeparators != nil {
		cs.ShowSeparators = *d.ShowSeparators
	}
	if d.ShowDetailedStats != nil {
		cs.ShowDetailedStats = *d.ShowDetailedStats
	}
	if d.ListingChannel != nil {
		cs.ListingChannel = *d.ListingChannel
	}
	if d.ModeratorRoles != nil {
		cs.ModeratorRoles = d.ModeratorRoles
	}
	if d.PriceFormat != nil {
		cs.PriceFormat = *d.PriceFormat
	}
}

// Manager persists one settings document per community id.
type Manager struct {
	db *sql.DB
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// Get returns the settings for a community: defaults when no record
// exists, otherwise the stored document merged field-by-field onto
// the defaults.
func (m *Manager) Get(communityID string) (CommunitySettings, error) {
	cs := DefaultSettings()

	var raw string
	err := m.db.QueryRow(
		`SELECT settings_json FROM community_settings WHERE community_id = ?`,
		communityID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return cs, nil
	}
	if err != nil {
		return cs, fmt.Errorf("failed to load community settings: %w", err)
	}

	var doc communityDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		logger.Warn("Malformed community settings document, using defaults",
			zap.String("community_id", communityID), zap.Error(err))
		return cs, nil
	}
	doc.applyTo(&cs)
	return cs, nil
}

// Save stores the full settings document for a community.
func (m *Manager) Save(communityID string, cs CommunitySettings) error {
	raw, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("failed to encode community settings: %w", err)
	}

	_, err = m.db.Exec(`
		INSERT INTO community_settings (community_id, settings_json)
		VALUES (?, ?)
		ON CONFLICT(community_id) DO UPDATE SET
			settings_json = excluded.settings_json,
			updated_at = CURRENT_TIMESTAMP`,
		communityID, string(raw))
	if err != nil {
		return fmt.Errorf("failed to save community settings: %w", err)
	}
	return nil
}

// Update reads, mutates and writes back one community's settings.
func (m *Manager) Update(communityID string, mutate func(*CommunitySettings)) (CommunitySettings, error) {
	cs, err := m.Get(communityID)
	if err != nil {
		return cs, err
	}
	mutate(&cs)
	if err := m.Save(communityID, cs); err != nil {
		return cs, err
	}
	return cs, nil
}

// EffectiveSettings is the fully merged configuration for one render
// call. EmbedColor already reflects a listing-level override;
// SectionColors keeps the per-section overrides for the renderer to
// apply over tier colors.
type EffectiveSettings struct {
	CommunitySettings
	SectionColors types.CustomColors
}

// Resolve merges community settings and per-listing color overrides with
// the precedence override > community > default. Pure; a nil community
// yields the global defaults.
func Resolve(cs *CommunitySettings, overrides *types.CustomColors) EffectiveSettings {
	eff := EffectiveSettings{CommunitySettings: DefaultSettings()}
	if cs != nil {
		eff.CommunitySettings = *cs
	}
	if overrides != nil {
		eff.SectionColors = *overrides
		if overrides.Embed != nil {
			eff.EmbedColor = *overrides.Embed
		}
	}
	return eff
}
