package settings

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ignmarket/listing-bot/internal/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`CREATE TABLE community_settings (
		community_id TEXT PRIMARY KEY,
		settings_json TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	return NewManager(db)
}

func TestGetDefaultsWhenAbsent(t *testing.T) {
	m := newTestManager(t)

	cs, err := m.Get("guild-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	want := DefaultSettings()
	if cs.EmbedColor != want.EmbedColor || cs.ShowThumbnails != want.ShowThumbnails || cs.PriceFormat != want.PriceFormat {
		t.Fatalf("got %+v, want defaults %+v", cs, want)
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	m := newTestManager(t)

	cs := DefaultSettings()
	cs.EmbedColor = 0xFF5733
	cs.MinimalEmojis = true
	cs.ModeratorRoles = []string{"role-1", "role-2"}
	if err := m.Save("guild-1", cs); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := m.Get("guild-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.EmbedColor != 0xFF5733 || !got.MinimalEmojis {
		t.Fatalf("got %+v", got)
	}
	if len(got.ModeratorRoles) != 2 || got.ModeratorRoles[0] != "role-1" {
		t.Fatalf("moderator roles = %v", got.ModeratorRoles)
	}

	// Another community is unaffected.
	other, err := m.Get("guild-2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if other.EmbedColor != DefaultSettings().EmbedColor {
		t.Fatalf("guild-2 picked up guild-1's settings: %+v", other)
	}
}

func TestGetMergesPartialDocument(t *testing.T) {
	m := newTestManager(t)

	// A document written before newer settings existed.
	if _, err := m.db.Exec(
		`INSERT INTO community_settings (community_id, settings_json) VALUES (?, ?)`,
		"guild-1", `{"minimal_emojis": true}`); err != nil {
		t.Fatalf("failed to seed document: %v", err)
	}

	cs, err := m.Get("guild-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !cs.MinimalEmojis {
		t.Fatal("stored field not applied")
	}
	if cs.EmbedColor != DefaultSettings().EmbedColor || !cs.ShowThumbnails {
		t.Fatalf("missing fields should fall back to defaults: %+v", cs)
	}
}

func TestGetMalformedDocumentFallsBack(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.db.Exec(
		`INSERT INTO community_settings (community_id, settings_json) VALUES (?, ?)`,
		"guild-1", `{not json`); err != nil {
		t.Fatalf("failed to seed document: %v", err)
	}

	cs, err := m.Get("guild-1")
	if err != nil {
		t.Fatalf("Get should not fail on malformed json: %v", err)
	}
	if cs.EmbedColor != DefaultSettings().EmbedColor {
		t.Fatalf("got %+v, want defaults", cs)
	}
}

func TestUpdateMutatesAndPersists(t *testing.T) {
	m := newTestManager(t)

	got, err := m.Update("guild-1", func(cs *CommunitySettings) {
		cs.ShowSeparators = false
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.ShowSeparators {
		t.Fatal("mutation not reflected in return value")
	}

	stored, err := m.Get("guild-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.ShowSeparators {
		t.Fatal("mutation not persisted")
	}
}

func TestResolvePrecedence(t *testing.T) {
	var embed types.RGB = 0x112233
	var bedwars types.RGB = 0x445566

	// nil community resolves to defaults.
	eff := Resolve(nil, nil)
	if eff.EmbedColor != DefaultSettings().EmbedColor {
		t.Fatalf("nil community embed = %s", eff.EmbedColor.Hex())
	}

	cs := DefaultSettings()
	cs.EmbedColor = 0xABCDEF
	eff = Resolve(&cs, nil)
	if eff.EmbedColor != 0xABCDEF {
		t.Fatalf("community embed = %s", eff.EmbedColor.Hex())
	}

	eff = Resolve(&cs, &types.CustomColors{Embed: &embed, BedWars: &bedwars})
	if eff.EmbedColor != embed {
		t.Fatalf("override embed = %s, want listing override to win", eff.EmbedColor.Hex())
	}
	if eff.SectionColors.BedWars == nil || *eff.SectionColors.BedWars != bedwars {
		t.Fatalf("section colors = %+v", eff.SectionColors)
	}
}
