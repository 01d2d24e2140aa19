package cache

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLite persists resolved rates and prices across runs so a re-run of the
// same statement does not hit the external services again.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens (or creates) the cache database and runs migrations.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite cache opened: %s", dbPath)
	return s, nil
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS nbp_rates (
			currency TEXT NOT NULL,
			quote_date TEXT NOT NULL,
			mid REAL NOT NULL,
			PRIMARY KEY (currency, quote_date)
		)`,
		`CREATE TABLE IF NOT EXISTS usd_prices (
			symbol TEXT NOT NULL,
			hour_unix INTEGER NOT NULL,
			price REAL NOT NULL,
			PRIMARY KEY (symbol, hour_unix)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:30], err)
		}
	}
	return nil
}

func (s *SQLite) Rate(currency, date string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var mid float64
	err := s.db.QueryRow(
		`SELECT mid FROM nbp_rates WHERE currency = ? AND quote_date = ?`,
		currency, date,
	).Scan(&mid)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[WARN] sqlite rate lookup: %v", err)
		}
		return 0, false
	}
	return mid, true
}

func (s *SQLite) PutRate(currency, date string, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`INSERT OR REPLACE INTO nbp_rates (currency, quote_date, mid) VALUES (?, ?, ?)`,
		currency, date, rate,
	); err != nil {
		log.Printf("[WARN] sqlite rate store: %v", err)
	}
}

func (s *SQLite) Price(symbol string, hourUnix int64) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var price float64
	err := s.db.QueryRow(
		`SELECT price FROM usd_prices WHERE symbol = ? AND hour_unix = ?`,
		symbol, hourUnix,
	).Scan(&price)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("[WARN] sqlite price lookup: %v", err)
		}
		return 0, false
	}
	return price, true
}

func (s *SQLite) PutPrice(symbol string, hourUnix int64, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`INSERT OR REPLACE INTO usd_prices (symbol, hour_unix, price) VALUES (?, ?, ?)`,
		symbol, hourUnix, price,
	); err != nil {
		log.Printf("[WARN] sqlite price store: %v", err)
	}
}

func (s *SQLite) Close() error {
	log.Println("[INFO] closing sqlite cache")
	return s.db.Close()
}
