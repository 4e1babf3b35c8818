package localdb

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

var DBClient *sql.DB

// SetupDB opens (or reuses) the sqlite database and creates the schema.
func SetupDB(dbPath string) (*sql.DB, error) {
	if DBClient != nil {
		return DBClient, nil
	}

	// WAL plus a busy timeout so concurrent handlers don't trip over
	// sqlite's single-writer locking.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// sqlite is single-writer; keep the pool at one connection.
	db.SetMaxOpenConns(1)

	DBClient = db

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS community_settings (
		community_id TEXT PRIMARY KEY,
		settings_json TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS listings (
		publication_id TEXT PRIMARY KEY,
		seller_id TEXT NOT NULL,
		seller_name TEXT NOT NULL,
		community_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		identity TEXT NOT NULL,
		buy_now_price TEXT NOT NULL DEFAULT '',
		current_offer TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		stats_json TEXT NOT NULL,
		colors_json TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return nil, err
	}

	db.Exec(`CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(seller_id)`)
	db.Exec(`CREATE INDEX IF NOT EXISTS idx_listings_community ON listings(community_id)`)

	return db, nil
}

func GetDB() *sql.DB {
	return DBClient
}

func CloseDB() error {
	if DBClient == nil {
		return nil
	}
	err := DBClient.Close()
	DBClient = nil
	return err
}
