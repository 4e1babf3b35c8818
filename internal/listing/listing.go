// Package listing holds the draft and published listing models, the
// per-section edit validation, and the deterministic artifact renderer.
package listing

import (
	"time"

	"github.com/ignmarket/listing-bot/internal/types"
)

// GeneralStats is always rendered. Rank stays free text ("None" when unset).
type GeneralStats struct {
	Rank         string `json:"rank"`
	NetworkLevel int    `json:"network_level"`
}

type BedWarsStats struct {
	Level int     `json:"level"`
	FKDR  float64 `json:"fkdr"`
	Wins  int     `json:"wins"`
}

type SkyWarsStats struct {
	Level int     `json:"level"`
	KDR   float64 `json:"kdr"`
	Wins  int     `json:"wins"`
}

// DuelsStats renders only when a title has been selected (Title != "").
type DuelsStats struct {
	Title string  `json:"title"`
	Wins  int     `json:"wins"`
	KDR   float64 `json:"kdr"`
}

type Stats struct {
	General GeneralStats `json:"general"`
	BedWars BedWarsStats `json:"bedwars"`
	SkyWars SkyWarsStats `json:"skywars"`
	Duels   DuelsStats   `json:"duels"`
}

func defaultStats() Stats {
	return Stats{
		General: GeneralStats{Rank: "None", NetworkLevel: 1},
	}
}

// Draft is an in-progress listing owned by exactly one composition
// session. It has no identity until published.
type Draft struct {
	Identity     string             `json:"identity"`
	SellerName   string             `json:"seller_name"`
	BuyNowPrice  string             `json:"buy_now_price"`
	CurrentOffer string             `json:"current_offer"`
	Notes        string             `json:"notes"`
	Stats        Stats              `json:"stats"`
	Colors       types.CustomColors `json:"custom_colors"`
}

// Listing is a published, persisted record keyed by the platform
// message identity it was posted as.
type Listing struct {
	PublicationID string             `json:"publication_id"`
	SellerID      string             `json:"seller_id"`
	SellerName    string             `json:"seller_name"`
	CommunityID   string             `json:"community_id"`
	ChannelID     string             `json:"channel_id"`
	Identity      string             `json:"identity"`
	BuyNowPrice   string             `json:"buy_now_price"`
	CurrentOffer  string             `json:"current_offer"`
	Notes         string             `json:"notes"`
	Stats         Stats              `json:"stats"`
	Colors        types.CustomColors `json:"custom_colors"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Publish freezes the draft into a listing record. The publication id is
// the platform message identity minted by the presentation layer.
func (d *Draft) Publish(publicationID, sellerID, communityID, channelID string, now time.Time) *Listing {
	return &Listing{
		PublicationID: publicationID,
		SellerID:      sellerID,
		SellerName:    d.SellerName,
		CommunityID:   communityID,
		ChannelID:     channelID,
		Identity:      d.Identity,
		BuyNowPrice:   d.BuyNowPrice,
		CurrentOffer:  d.CurrentOffer,
		Notes:         d.Notes,
		Stats:         d.Stats,
		Colors:        d.Colors,
		CreatedAt:     now.UTC(),
	}
}
