package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/djdiptayan1/trackmoji/internal/ledger"
	"github.com/djdiptayan1/trackmoji/internal/logger"
)

// Applies the ledger schema to the SQLite database and exits. Useful for
// preparing a database file without starting the API server.
func main() {
	dbPath := flag.String("db", os.Getenv("DB_PATH"), "path to the SQLite database file (or set DB_PATH env)")
	flag.Parse()

	log := logger.New()

	if *dbPath == "" {
		*dbPath = "trackmoji.db"
	}

	store, err := ledger.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", *dbPath).Msg("Migration failed")
	}
	defer store.Close()

	log.Info().Str("db", *dbPath).Msg("Ledger schema is up to date")
	fmt.Println("ok")
}
