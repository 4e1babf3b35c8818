package types

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is a 24-bit color packed as 0xRRGGBB.
type RGB int

// Hex renders the color as "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%06X", int(c))
}

// ParseRGB parses a hex color with an optional leading '#'.
func ParseRGB(s string) (RGB, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(trimmed) == 0 || len(trimmed) > 6 {
		return 0, fmt.Errorf("invalid hex color: %q", s)
	}
	v, err := strconv.ParseInt(trimmed, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex color: %q", s)
	}
	return RGB(v), nil
}

// CustomColors are per-listing color overrides. A nil field means
// "no override"; resolution order is override > community > default.
type CustomColors struct {
	Embed   *RGB `json:"embed_color"`
	BedWars *RGB `json:"bedwars_color"`
	SkyWars *RGB `json:"skywars_color"`
	Duels   *RGB `json:"duels_color"`
}
