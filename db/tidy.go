package db

import (
	"database/sql"

	log "github.com/sirupsen/logrus"
)

// Tidy compacts the database file, reclaiming the pages left behind by replaced snapshots
func Tidy(database string) error {
	db, err := connection(database)
	if err != nil {
		return err
	}
	defer db.Close()

	return tidy(db)
}

func tidy(db *sql.DB) error {
	log.Info("Tidying database")
	_, err := db.Exec("VACUUM")
	return err
}
