package infra_pg_init

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/vpetrakov/learnhub/core/internal/config"
)

const (
	connAttempts = 5
	connBackoff  = 5 * time.Second
)

// MustEstablishConn retries with a fixed backoff before giving up.
// Serving requests against no store is fatal.
func MustEstablishConn(cfg config.Postgres) *sqlx.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
	)

	var db *sqlx.DB
	var err error
	for attempt := 1; attempt <= connAttempts; attempt++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return db
		}
		log.Printf("postgres connect attempt %d/%d failed: %v", attempt, connAttempts, err)
		if attempt < connAttempts {
			time.Sleep(connBackoff)
		}
	}

	log.Fatalf("postgres unreachable after %d attempts: %v", connAttempts, err)
	return nil
}
