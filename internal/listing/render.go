package listing

import (
	"fmt"
	"strings"
	"time"

	"github.com/ignmarket/listing-bot/internal/settings"
	"github.com/ignmarket/listing-bot/internal/tiers"
	"github.com/ignmarket/listing-bot/internal/types"
)

// Section is one titled block of a rendered artifact.
type Section struct {
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	Inline bool      `json:"inline"`
	Color  types.RGB `json:"color"`
}

// Artifact is the presentation-agnostic rendering of a draft or listing.
// The platform layer turns it into a chat message plus whatever
// interactive controls the current workflow state requires.
type Artifact struct {
	Title        string    `json:"title"`
	Color        types.RGB `json:"color"`
	AuthorLine   string    `json:"author_line"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Sections     []Section `json:"sections"`
	Footer       string    `json:"footer"`
	Timestamp    time.Time `json:"timestamp"`
	Sold         bool      `json:"sold"`
}

const (
	footerText    = "Created with Advanced Listing Bot"
	separatorBody = "─────────────────────"
	soldColor     = types.RGB(0x00FF00)
)

// renderView is the common field set of Draft and Listing.
type renderView struct {
	identity     string
	sellerName   string
	buyNowPrice  string
	currentOffer string
	notes        string
	stats        Stats
}

// RenderDraft renders an unpublished draft (previews).
func RenderDraft(d *Draft, eff settings.EffectiveSettings, now time.Time) Artifact {
	return render(renderView{
		identity:     d.Identity,
		sellerName:   d.SellerName,
		buyNowPrice:  d.BuyNowPrice,
		currentOffer: d.CurrentOffer,
		notes:        d.Notes,
		stats:        d.Stats,
	}, eff, now, false)
}

// RenderListing renders a published listing. sold marks the artifact as
// a closed sale (title prefix, forced color, controls removed upstream).
func RenderListing(l *Listing, eff settings.EffectiveSettings, now time.Time, sold bool) Artifact {
	return render(renderView{
		identity:     l.Identity,
		sellerName:   l.SellerName,
		buyNowPrice:  l.BuyNowPrice,
		currentOffer: l.CurrentOffer,
		notes:        l.Notes,
		stats:        l.Stats,
	}, eff, now, sold)
}

func sectionTitle(emoji, name string, minimal bool) string {
	if minimal || emoji == "" {
		return name
	}
	return emoji + " " + name
}

// render produces the fixed section sequence. Section order never
// depends on map iteration; every inclusion rule is explicit.
func render(v renderView, eff settings.EffectiveSettings, now time.Time, sold bool) Artifact {
	a := Artifact{
		Title:      fmt.Sprintf("%s — Account Listing", v.identity),
		Color:      eff.EmbedColor,
		AuthorLine: fmt.Sprintf("Listed by %s", v.sellerName),
		Footer:     footerText,
		Timestamp:  now.UTC(),
		Sold:       sold,
	}
	if sold {
		a.Title = "[SOLD] " + a.Title
		a.Color = soldColor
	}
	if eff.ShowThumbnails {
		a.ThumbnailURL = fmt.Sprintf("https://mc-heads.net/avatar/%s/128", v.identity)
	}

	binValue := "Not Set"
	if v.buyNowPrice != "" {
		binValue = fmt.Sprintf("`%s`", v.buyNowPrice)
	}
	offerValue := "None"
	if v.currentOffer != "" {
		offerValue = fmt.Sprintf("`%s`", v.currentOffer)
	}
	a.Sections = append(a.Sections,
		Section{Title: sectionTitle("💰", "Buy It Now", eff.MinimalEmojis), Body: binValue, Inline: true, Color: a.Color},
		Section{Title: sectionTitle("📈", "Current Offer", eff.MinimalEmojis), Body: offerValue, Inline: true, Color: a.Color},
	)

	if eff.ShowSeparators {
		a.Sections = append(a.Sections, Section{Body: separatorBody, Color: a.Color})
	}

	a.Sections = append(a.Sections, Section{
		Title: sectionTitle("📊", "General Stats", eff.MinimalEmojis),
		Body:  generalBody(v.stats.General),
		Color: a.Color,
	})

	if v.stats.BedWars.Level > 0 {
		tier := tiers.ResolveTier(v.stats.BedWars.Level, tiers.BedWarsStars)
		color := tier.Color
		if eff.SectionColors.BedWars != nil {
			color = *eff.SectionColors.BedWars
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s **%d★** (%s)", tier.Symbol, v.stats.BedWars.Level, tier.Name)
		if eff.ShowDetailedStats && v.stats.BedWars.FKDR != 0 {
			fmt.Fprintf(&b, "\n`FKDR:` **%s**", formatRatio(v.stats.BedWars.FKDR))
		}
		if eff.ShowDetailedStats && v.stats.BedWars.Wins != 0 {
			fmt.Fprintf(&b, "\n`Wins:` **%s**", FormatWinCount(v.stats.BedWars.Wins))
		}
		a.Sections = append(a.Sections, Section{
			Title:  sectionTitle("🛏️", "BedWars", eff.MinimalEmojis),
			Body:   b.String(),
			Inline: true,
			Color:  color,
		})
	}

	if v.stats.SkyWars.Level > 0 {
		tier := tiers.ResolveTier(v.stats.SkyWars.Level, tiers.SkyWarsStars)
		color := tier.Color
		if eff.SectionColors.SkyWars != nil {
			color = *eff.SectionColors.SkyWars
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s **%d★** (%s)", tier.Symbol, v.stats.SkyWars.Level, tier.Name)
		if eff.ShowDetailedStats && v.stats.SkyWars.KDR != 0 {
			fmt.Fprintf(&b, "\n`KDR:` **%s**", formatRatio(v.stats.SkyWars.KDR))
		}
		if eff.ShowDetailedStats && v.stats.SkyWars.Wins != 0 {
			fmt.Fprintf(&b, "\n`Wins:` **%s**", FormatWinCount(v.stats.SkyWars.Wins))
		}
		a.Sections = append(a.Sections, Section{
			Title:  sectionTitle("⚔️", "SkyWars", eff.MinimalEmojis),
			Body:   b.String(),
			Inline: true,
			Color:  color,
		})
	}

	if v.stats.Duels.Title != "" {
		title, ok := tiers.ResolveDuelsTitle(v.stats.Duels.Title)
		if !ok {
			title = tiers.DuelsTitles[0]
		}
		color := title.Color
		if eff.SectionColors.Duels != nil {
			color = *eff.SectionColors.Duels
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s **%s**", title.Symbol, title.Name)
		if eff.ShowDetailedStats && v.stats.Duels.Wins != 0 {
			fmt.Fprintf(&b, "\n`Wins:` **%s**", FormatWinCount(v.stats.Duels.Wins))
		}
		if eff.ShowDetailedStats && v.stats.Duels.KDR != 0 {
			fmt.Fprintf(&b, "\n`KDR:` **%s**", formatRatio(v.stats.Duels.KDR))
		}
		a.Sections = append(a.Sections, Section{
			Title:  sectionTitle("🗡️", "Duels", eff.MinimalEmojis),
			Body:   b.String(),
			Inline: true,
			Color:  color,
		})
	}

	if v.notes != "" {
		if eff.ShowSeparators {
			a.Sections = append(a.Sections, Section{Body: separatorBody, Color: a.Color})
		}
		a.Sections = append(a.Sections, Section{
			Title: sectionTitle("📝", "Additional Notes", eff.MinimalEmojis),
			Body:  v.notes,
			Color: a.Color,
		})
	}

	return a
}

func generalBody(g GeneralStats) string {
	rankDisplay := "None"
	if g.Rank != "" && g.Rank != "None" {
		rankDisplay = fmt.Sprintf("[%s]", g.Rank)
	}
	return fmt.Sprintf("**Rank:** `%s`\n**Network Level:** `%d`", rankDisplay, g.NetworkLevel)
}
