package sqlite

import (
	"database/sql"
	"fmt"

	"golang.org/x/mod/semver"
)

// checkSchemaVersion reads the schema_version row (stamping CurrentSchemaVersion
// if the table is empty, meaning a brand new database) and refuses to proceed
// if the stored version is newer than CurrentSchemaVersion — an older binary
// must never silently reinterpret a newer schema's rows.
func checkSchemaVersion(db *sql.DB) error {
	var stored string
	err := db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&stored)
	if err == sql.ErrNoRows {
		_, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, CurrentSchemaVersion)
		if err != nil {
			return fmt.Errorf("stamping schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if !semver.IsValid(stored) || !semver.IsValid(CurrentSchemaVersion) {
		return fmt.Errorf("invalid schema version: stored=%q current=%q", stored, CurrentSchemaVersion)
	}
	if semver.Compare(stored, CurrentSchemaVersion) > 0 {
		return fmt.Errorf("database schema %s is newer than this binary understands (%s); refusing to open", stored, CurrentSchemaVersion)
	}
	return nil
}
