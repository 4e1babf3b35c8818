package listing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ignmarket/listing-bot/internal/tiers"
	"github.com/ignmarket/listing-bot/internal/types"
)

const (
	maxIdentityLen = 16
	maxNotesLen    = 1000
)

// ValidationError reports a rejected edit. The draft is never mutated
// when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewDraft validates the initial structured input and seeds default
// stats and colors.
func NewDraft(identity, sellerName, buyNow, currentOffer, notes string) (*Draft, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" || len(identity) > maxIdentityLen {
		return nil, &ValidationError{Field: "identity", Reason: fmt.Sprintf("must be 1-%d characters", maxIdentityLen)}
	}
	if len(notes) > maxNotesLen {
		return nil, &ValidationError{Field: "notes", Reason: fmt.Sprintf("must be at most %d characters", maxNotesLen)}
	}

	return &Draft{
		Identity:     identity,
		SellerName:   sellerName,
		BuyNowPrice:  buyNow,
		CurrentOffer: currentOffer,
		Notes:        notes,
		Stats:        defaultStats(),
	}, nil
}

// parseIntDefault parses digits-only input, silently degrading anything
// else to def. This mirrors the established edit behavior: malformed
// integer text is not an error.
func parseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return def
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// parseFloatStrict accepts empty input as 0.0 but rejects non-numeric
// text. Unlike integers, a malformed ratio fails the whole edit.
func parseFloatStrict(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, &ValidationError{Field: field, Reason: "must be a non-negative number"}
	}
	return v, nil
}

// GeneralInput carries the raw form values for the general-stats edit.
type GeneralInput struct {
	Rank         string `json:"rank"`
	NetworkLevel string `json:"network_level"`
}

// EditGeneral replaces the general sub-record wholesale.
func (d *Draft) EditGeneral(in GeneralInput) error {
	rank := strings.TrimSpace(in.Rank)
	if rank == "" {
		rank = "None"
	}
	if len(rank) > 10 {
		return &ValidationError{Field: "rank", Reason: "must be at most 10 characters"}
	}

	d.Stats.General = GeneralStats{
		Rank:         rank,
		NetworkLevel: parseIntDefault(in.NetworkLevel, 1),
	}
	return nil
}

// RatioStatsInput carries the raw form values for the bedwars and
// skywars edits (level, a kill/death style ratio, and win count).
type RatioStatsInput struct {
	Level string `json:"level"`
	Ratio string `json:"ratio"`
	Wins  string `json:"wins"`
}

// EditBedWars replaces the bedwars sub-record wholesale. A malformed
// ratio rejects the edit without touching the draft.
func (d *Draft) EditBedWars(in RatioStatsInput) error {
	fkdr, err := parseFloatStrict("fkdr", in.Ratio)
	if err != nil {
		return err
	}

	d.Stats.BedWars = BedWarsStats{
		Level: parseIntDefault(in.Level, 0),
		FKDR:  fkdr,
		Wins:  parseIntDefault(in.Wins, 0),
	}
	return nil
}

// EditSkyWars replaces the skywars sub-record wholesale.
func (d *Draft) EditSkyWars(in RatioStatsInput) error {
	kdr, err := parseFloatStrict("kdr", in.Ratio)
	if err != nil {
		return err
	}

	d.Stats.SkyWars = SkyWarsStats{
		Level: parseIntDefault(in.Level, 0),
		KDR:   kdr,
		Wins:  parseIntDefault(in.Wins, 0),
	}
	return nil
}

// DuelsInput carries the selected title plus the raw numeric stats.
type DuelsInput struct {
	Title string `json:"title"`
	Wins  string `json:"wins"`
	KDR   string `json:"kdr"`
}

// EditDuels replaces the duels sub-record wholesale. The title must be
// one of the known duels titles; it is selected before the stats step.
func (d *Draft) EditDuels(in DuelsInput) error {
	if _, ok := tiers.ResolveDuelsTitle(in.Title); !ok {
		return &ValidationError{Field: "title", Reason: fmt.Sprintf("unknown duels title %q", in.Title)}
	}
	kdr, err := parseFloatStrict("kdr", in.KDR)
	if err != nil {
		return err
	}

	d.Stats.Duels = DuelsStats{
		Title: in.Title,
		Wins:  parseIntDefault(in.Wins, 0),
		KDR:   kdr,
	}
	return nil
}

// ColorsInput carries raw hex strings; empty fields clear no override
// and keep the existing value.
type ColorsInput struct {
	Embed   string `json:"embed_color"`
	BedWars string `json:"bedwars_color"`
	SkyWars string `json:"skywars_color"`
	Duels   string `json:"duels_color"`
}

// EditColors parses every provided color before applying any of them,
// so a malformed value cannot leave the draft half-updated.
func (d *Draft) EditColors(in ColorsInput) error {
	next := d.Colors

	fields := []struct {
		name string
		raw  string
		dst  **types.RGB
	}{
		{"embed_color", in.Embed, &next.Embed},
		{"bedwars_color", in.BedWars, &next.BedWars},
		{"skywars_color", in.SkyWars, &next.SkyWars},
		{"duels_color", in.Duels, &next.Duels},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		c, err := types.ParseRGB(f.raw)
		if err != nil {
			return &ValidationError{Field: f.name, Reason: "must be a hex color like #FF5733"}
		}
		v := c
		*f.dst = &v
	}

	d.Colors = next
	return nil
}
