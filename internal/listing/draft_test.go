package listing

import (
	"strings"
	"testing"
)

func TestNewDraftValidation(t *testing.T) {
	if _, err := NewDraft("", "Seller", "", "", ""); err == nil {
		t.Fatal("expected error for empty identity")
	}
	if _, err := NewDraft(strings.Repeat("a", 17), "Seller", "", "", ""); err == nil {
		t.Fatal("expected error for identity over 16 characters")
	}
	if _, err := NewDraft("Player1", "Seller", "", "", strings.Repeat("x", 1001)); err == nil {
		t.Fatal("expected error for notes over 1000 characters")
	}

	d, err := NewDraft("  Player1  ", "Seller", "$50", "", "clean account")
	if err != nil {
		t.Fatalf("NewDraft failed: %v", err)
	}
	if d.Identity != "Player1" {
		t.Fatalf("identity = %q, want trimmed %q", d.Identity, "Player1")
	}
	if d.Stats.General.Rank != "None" || d.Stats.General.NetworkLevel != 1 {
		t.Fatalf("default general stats = %+v", d.Stats.General)
	}
	if d.Stats.BedWars.Level != 0 || d.Stats.Duels.Title != "" {
		t.Fatalf("game stats expected zero-valued, got %+v", d.Stats)
	}
}

func TestEditGeneralDefaults(t *testing.T) {
	d, _ := NewDraft("Player1", "Seller", "", "", "")

	if err := d.EditGeneral(GeneralInput{Rank: "  ", NetworkLevel: "abc"}); err != nil {
		t.Fatalf("EditGeneral failed: %v", err)
	}
	if d.Stats.General.Rank != "None" {
		t.Fatalf("blank rank = %q, want None", d.Stats.General.Rank)
	}
	if d.Stats.General.NetworkLevel != 1 {
		t.Fatalf("malformed level = %d, want default 1", d.Stats.General.NetworkLevel)
	}

	if err := d.EditGeneral(GeneralInput{Rank: "MVP++", NetworkLevel: "120"}); err != nil {
		t.Fatalf("EditGeneral failed: %v", err)
	}
	if d.Stats.General.Rank != "MVP++" || d.Stats.General.NetworkLevel != 120 {
		t.Fatalf("general = %+v", d.Stats.General)
	}

	if err := d.EditGeneral(GeneralInput{Rank: strings.Repeat("M", 11)}); err == nil {
		t.Fatal("expected error for rank over 10 characters")
	}
}

func TestEditBedWarsIntDegradesFloatRejects(t *testing.T) {
	d, _ := NewDraft("Player1", "Seller", "", "", "")

	// Malformed integers degrade to defaults without an error.
	if err := d.EditBedWars(RatioStatsInput{Level: "lots", Ratio: "3.2", Wins: "1,500"}); err != nil {
		t.Fatalf("EditBedWars failed: %v", err)
	}
	if d.Stats.BedWars.Level != 0 || d.Stats.BedWars.Wins != 0 {
		t.Fatalf("malformed ints should default to 0, got %+v", d.Stats.BedWars)
	}
	if d.Stats.BedWars.FKDR != 3.2 {
		t.Fatalf("fkdr = %v, want 3.2", d.Stats.BedWars.FKDR)
	}

	// Malformed ratio rejects and leaves the sub-record untouched.
	before := d.Stats.BedWars
	if err := d.EditBedWars(RatioStatsInput{Level: "500", Ratio: "three"}); err == nil {
		t.Fatal("expected error for non-numeric ratio")
	}
	if d.Stats.BedWars != before {
		t.Fatalf("rejected edit mutated stats: %+v", d.Stats.BedWars)
	}
	if err := d.EditBedWars(RatioStatsInput{Ratio: "-1"}); err == nil {
		t.Fatal("expected error for negative ratio")
	}
}

func TestEditIsWholesale(t *testing.T) {
	d, _ := NewDraft("Player1", "Seller", "", "", "")

	if err := d.EditSkyWars(RatioStatsInput{Level: "25", Ratio: "1.8", Wins: "900"}); err != nil {
		t.Fatalf("EditSkyWars failed: %v", err)
	}
	// Re-editing with empty fields replaces, not merges.
	if err := d.EditSkyWars(RatioStatsInput{Level: "30"}); err != nil {
		t.Fatalf("EditSkyWars failed: %v", err)
	}
	if d.Stats.SkyWars.KDR != 0 || d.Stats.SkyWars.Wins != 0 {
		t.Fatalf("wholesale replace expected, got %+v", d.Stats.SkyWars)
	}
	if d.Stats.SkyWars.Level != 30 {
		t.Fatalf("level = %d, want 30", d.Stats.SkyWars.Level)
	}
}

func TestEditDuelsTitle(t *testing.T) {
	d, _ := NewDraft("Player1", "Seller", "", "", "")

	if err := d.EditDuels(DuelsInput{Title: "Platinum"}); err == nil {
		t.Fatal("expected error for unknown duels title")
	}
	if d.Stats.Duels.Title != "" {
		t.Fatalf("rejected edit mutated duels: %+v", d.Stats.Duels)
	}

	if err := d.EditDuels(DuelsInput{Title: "Grandmaster", Wins: "4200", KDR: "2.4"}); err != nil {
		t.Fatalf("EditDuels failed: %v", err)
	}
	if d.Stats.Duels.Title != "Grandmaster" || d.Stats.Duels.Wins != 4200 || d.Stats.Duels.KDR != 2.4 {
		t.Fatalf("duels = %+v", d.Stats.Duels)
	}
}

func TestEditColorsAtomic(t *testing.T) {
	d, _ := NewDraft("Player1", "Seller", "", "", "")

	if err := d.EditColors(ColorsInput{Embed: "#FF5733", BedWars: "not-a-color"}); err == nil {
		t.Fatal("expected error for malformed color")
	}
	if d.Colors.Embed != nil {
		t.Fatal("rejected color edit must not apply any field")
	}

	if err := d.EditColors(ColorsInput{Embed: "FF5733", Duels: "#00AA00"}); err != nil {
		t.Fatalf("EditColors failed: %v", err)
	}
	if d.Colors.Embed == nil || d.Colors.Embed.Hex() != "#FF5733" {
		t.Fatalf("embed color = %v", d.Colors.Embed)
	}
	if d.Colors.BedWars != nil {
		t.Fatal("empty field should leave override unset")
	}

	// Empty fields on a later edit keep the earlier overrides.
	if err := d.EditColors(ColorsInput{BedWars: "#AA0000"}); err != nil {
		t.Fatalf("EditColors failed: %v", err)
	}
	if d.Colors.Embed == nil || d.Colors.Embed.Hex() != "#FF5733" {
		t.Fatal("earlier embed override lost on later edit")
	}
	if d.Colors.BedWars == nil || d.Colors.BedWars.Hex() != "#AA0000" {
		t.Fatalf("bedwars color = %v", d.Colors.BedWars)
	}
}

func TestPublishFreezesDraft(t *testing.T) {
	d, _ := NewDraft("Player1", "Seller", "$50", "$30", "notes here")
	_ = d.EditBedWars(RatioStatsInput{Level: "250", Ratio: "3.2", Wins: "1500"})

	l := d.Publish("msg-1", "seller-1", "guild-1", "chan-1", testNow())
	if l.PublicationID != "msg-1" || l.SellerID != "seller-1" {
		t.Fatalf("listing identity = %+v", l)
	}
	if l.Identity != "Player1" || l.BuyNowPrice != "$50" || l.CurrentOffer != "$30" {
		t.Fatalf("listing fields = %+v", l)
	}
	if l.Stats.BedWars.Level != 250 {
		t.Fatalf("stats not carried: %+v", l.Stats.BedWars)
	}
	if !l.CreatedAt.Equal(testNow().UTC()) {
		t.Fatalf("created at = %v", l.CreatedAt)
	}
}
