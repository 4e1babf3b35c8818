// seed-demo populates a database with demo listings and prints their
// rendered artifacts. Useful for trying the API without a gateway.
package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignmarket/listing-bot/internal/listing"
	"github.com/ignmarket/listing-bot/internal/localdb"
	"github.com/ignmarket/listing-bot/internal/session"
	"github.com/ignmarket/listing-bot/internal/settings"
	"github.com/ignmarket/listing-bot/internal/shared/logger"
	"github.com/ignmarket/listing-bot/internal/shared/paths"
	"go.uber.org/zap"
)

type demoSeed struct {
	identity string
	buyNow   string
	offer    string
	notes    string
	general  listing.GeneralInput
	bedwars  listing.RatioStatsInput
	skywars  listing.RatioStatsInput
	duels    listing.DuelsInput
}

var seeds = []demoSeed{
	{
		identity: "Herobrine",
		buyNow:   "$120",
		offer:    "$85",
		notes:    "OG username, unmigrated cape.",
		general:  listing.GeneralInput{Rank: "MVP++", NetworkLevel: "210"},
		bedwars:  listing.RatioStatsInput{Level: "850", Ratio: "4.1", Wins: "3200"},
		skywars:  listing.RatioStatsInput{Level: "32", Ratio: "2.2", Wins: "1800"},
		duels:    listing.DuelsInput{Title: "Grandmaster", Wins: "5400", KDR: "2.8"},
	},
	{
		identity: "StarterAcc",
		buyNow:   "$15",
		general:  listing.GeneralInput{Rank: "VIP", NetworkLevel: "35"},
		bedwars:  listing.RatioStatsInput{Level: "120", Ratio: "1.1", Wins: "340"},
	},
	{
		identity: "SweatLord",
		offer:    "$60",
		notes:    "Taking offers only.",
		general:  listing.GeneralInput{Rank: "MVP+", NetworkLevel: "145"},
		skywars:  listing.RatioStatsInput{Level: "48", Ratio: "3.5", Wins: "2600"},
		duels:    listing.DuelsInput{Title: "Legend", Wins: "2100", KDR: "1.9"},
	},
}

func main() {
	communityID := flag.String("community", "demo-guild", "community id to seed into")
	channelID := flag.String("channel", "demo-channel", "channel id for the seeded listings")
	flag.Parse()

	logger.Init(false)
	defer logger.Sync()

	if err := paths.EnsureDataDirs(); err != nil {
		logger.Fatal("Failed to ensure data directories", zap.Error(err))
	}
	db, err := localdb.SetupDB(paths.GetDBPath())
	if err != nil {
		logger.Fatal("Failed to setup database", zap.Error(err))
	}
	defer localdb.CloseDB()

	store := localdb.NewStore(db)
	settingsManager := settings.NewManager(db)
	sessions := session.NewManager(store, settingsManager, 5*time.Minute)

	for _, seed := range seeds {
		s, err := sessions.Start("demo-seller", "DemoSeller", *communityID, *channelID,
			seed.identity, seed.buyNow, seed.offer, seed.notes)
		if err != nil {
			logger.Fatal("Failed to start session", zap.String("identity", seed.identity), zap.Error(err))
		}

		if _, err := sessions.EditGeneral(s.Token, seed.general); err != nil {
			logger.Fatal("Failed to edit general stats", zap.Error(err))
		}
		if seed.bedwars.Level != "" {
			if _, err := sessions.EditBedWars(s.Token, seed.bedwars); err != nil {
				logger.Fatal("Failed to edit bedwars stats", zap.Error(err))
			}
		}
		if seed.skywars.Level != "" {
			if _, err := sessions.EditSkyWars(s.Token, seed.skywars); err != nil {
				logger.Fatal("Failed to edit skywars stats", zap.Error(err))
			}
		}
		if seed.duels.Title != "" {
			if _, err := sessions.EditDuels(s.Token, seed.duels); err != nil {
				logger.Fatal("Failed to edit duels stats", zap.Error(err))
			}
		}

		if _, _, err := sessions.Preview(s.Token); err != nil {
			logger.Fatal("Failed to preview", zap.Error(err))
		}

		publicationID := uuid.NewString()
		_, art, err := sessions.Publish(s.Token, publicationID)
		if err != nil {
			logger.Fatal("Failed to publish", zap.Error(err))
		}

		printArtifact(publicationID, art)
	}

	count, _ := store.Count()
	fmt.Printf("Seeded %d listings into %s\n", count, paths.GetDBPath())
}

func printArtifact(publicationID string, art listing.Artifact) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("%s  [%s]\n", art.Title, publicationID)
	fmt.Printf("%s  (color %s)\n", art.AuthorLine, art.Color.Hex())
	if art.ThumbnailURL != "" {
		fmt.Printf("thumbnail: %s\n", art.ThumbnailURL)
	}
	for _, s := range art.Sections {
		if s.Title != "" {
			fmt.Printf("\n[%s]\n", s.Title)
		} else {
			fmt.Println()
		}
		fmt.Println(s.Body)
	}
	fmt.Printf("\n%s | %s\n", art.Footer, art.Timestamp.Format(time.RFC3339))
}
