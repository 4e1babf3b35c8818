// Package tiers holds the static display-tier tables for each game
// discipline and resolves numeric levels to their display descriptor.
package tiers

import (
	"github.com/ignmarket/listing-bot/internal/types"
)

// TierEntry describes how a level range (or ordinal title) is displayed.
type TierEntry struct {
	Threshold int       `json:"threshold"`
	Symbol    string    `json:"symbol"`
	Color     types.RGB `json:"color"`
	Name      string    `json:"name"`
}

// BedWarsStars maps star levels to prestige display. Sorted ascending;
// the threshold-0 entry guarantees every level >= 0 resolves.
var BedWarsStars = []TierEntry{
	{0, "✫", 0x7F7F7F, "Gray"},
	{100, "★", 0xFFFFFF, "White"},
	{200, "⭐", 0xFFAA00, "Gold"},
	{300, "✦", 0x55FFFF, "Aqua"},
	{400, "✧", 0x00AA00, "Dark Green"},
	{500, "✩", 0x00AAAA, "Dark Aqua"},
	{600, "✪", 0xAA0000, "Dark Red"},
	{700, "✫", 0xFF55FF, "Light Purple"},
	{800, "✬", 0x5555FF, "Blue"},
	{900, "✭", 0xAA00AA, "Dark Purple"},
	{1000, "✮", 0xFFAA00, "Gold"},
	{1100, "✯", 0xFFFFFF, "White"},
	{1200, "✰", 0x55FFFF, "Aqua"},
	{1300, "✱", 0xFFAA00, "Gold"},
	{1400, "✲", 0x00AA00, "Green"},
	{1500, "✳", 0x00AAAA, "Dark Aqua"},
	{1600, "✴", 0xAA0000, "Dark Red"},
	{1700, "✵", 0xFF55FF, "Light Purple"},
	{1800, "✶", 0x5555FF, "Blue"},
	{1900, "✷", 0xAA00AA, "Dark Purple"},
	{2000, "✸", 0xFFD700, "Rainbow Start"},
}

// SkyWarsStars uses a much denser scale (stars every 5 levels).
var SkyWarsStars = []TierEntry{
	{0, "☆", 0x7F7F7F, "Gray"},
	{5, "✙", 0xFFFFFF, "White"},
	{10, "✚", 0xFFAA00, "Gold"},
	{15, "✛", 0x55FFFF, "Aqua"},
	{20, "✜", 0x00AA00, "Green"},
	{25, "✝", 0x00AAAA, "Dark Aqua"},
	{30, "✞", 0xAA0000, "Dark Red"},
	{35, "✟", 0xFF55FF, "Light Purple"},
	{40, "✠", 0x5555FF, "Blue"},
	{45, "✡", 0xAA00AA, "Dark Purple"},
	{50, "☆", 0xFFD700, "Rainbow"},
}

// DuelsTitles are ordinal, not threshold-based: a seller picks one by name.
// Threshold carries the ordinal position for stable ordering.
var DuelsTitles = []TierEntry{
	{0, "⚔", 0x7F7F7F, "Rookie"},
	{1, "⚔", 0xFFFFFF, "Iron"},
	{2, "⚔", 0xFFAA00, "Gold"},
	{3, "⚔", 0x55FFFF, "Diamond"},
	{4, "⚔", 0x00AA00, "Master"},
	{5, "⚔", 0xAA0000, "Legend"},
	{6, "⚔", 0xFF55FF, "Grandmaster"},
	{7, "⚔", 0x5555FF, "Godlike"},
	{8, "⚔", 0xAA00AA, "Celestial"},
	{9, "⚔", 0xFFD700, "Divine"},
}

var duelsByName map[string]TierEntry

func init() {
	verifyTable(BedWarsStars)
	verifyTable(SkyWarsStars)

	duelsByName = make(map[string]TierEntry, len(DuelsTitles))
	for _, t := range DuelsTitles {
		duelsByName[t.Name] = t
	}
}

// verifyTable enforces the construction-time invariants: non-empty,
// ascending thresholds, threshold-0 fallback present.
func verifyTable(table []TierEntry) {
	if len(table) == 0 {
		panic("tiers: empty tier table")
	}
	if table[0].Threshold != 0 {
		panic("tiers: tier table missing threshold-0 fallback")
	}
	for i := 1; i < len(table); i++ {
		if table[i].Threshold <= table[i-1].Threshold {
			panic("tiers: tier table not sorted ascending")
		}
	}
}

// ResolveTier returns the entry with the largest threshold <= level.
// Levels below zero fall through to the threshold-0 entry.
func ResolveTier(level int, table []TierEntry) TierEntry {
	for i := len(table) - 1; i >= 0; i-- {
		if table[i].Threshold <= level {
			return table[i]
		}
	}
	return table[0]
}

// ResolveDuelsTitle looks up a duels title descriptor by name.
func ResolveDuelsTitle(name string) (TierEntry, bool) {
	t, ok := duelsByName[name]
	return t, ok
}
