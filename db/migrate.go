package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/logger"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// migration is one embedded schema file. Its version is the numeric prefix
// of the file name.
type migration struct {
	name    string
	version string
}

// Migrate brings the quad store, watermark and ingestion history tables up
// to the latest schema. A nil log migrates silently.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	log = logger.AddDBSymbol(logger.OrNop(log))

	applied, err := applyPending(db, func(m migration) {
		log.Infow("Applied migration", "migration", m.name, "schema_version", m.version)
	})
	if err != nil {
		return err
	}

	all, err := embeddedMigrations()
	if err != nil {
		return err
	}
	log.Debugw("Database schema up to date",
		"schema_version", all[len(all)-1].version,
		"applied", applied,
		logger.FieldTotalCount, len(all))
	return nil
}

// embeddedMigrations lists the schema files in version order;
// 000_create_schema_migrations.sql sorts first.
func embeddedMigrations() ([]migration, error) {
	entries, err := migrations.ReadDir(migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}
	var out []migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		version, _, _ := strings.Cut(name, "_")
		out = append(out, migration{name: name, version: version})
	}
	if len(out) == 0 {
		return nil, errors.New("no migrations embedded")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

// appliedVersions returns the versions recorded in schema_migrations, or an
// empty set on a fresh database.
func appliedVersions(db *sql.DB) (map[string]bool, error) {
	var tables int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'",
	).Scan(&tables); err != nil {
		return nil, errors.Wrap(err, "look up schema_migrations")
	}
	done := map[string]bool{}
	if tables == 0 {
		return done, nil
	}

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "read schema_migrations")
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan schema version")
		}
		done[v] = true
	}
	return done, rows.Err()
}

// applyPending runs every migration not yet recorded, each in its own
// transaction, and returns the names it applied in order.
func applyPending(db *sql.DB, onApplied func(migration)) ([]string, error) {
	all, err := embeddedMigrations()
	if err != nil {
		return nil, err
	}
	done, err := appliedVersions(db)
	if err != nil {
		return nil, err
	}
	if len(done) == 0 && all[0].version != "000" {
		return nil, errors.Newf("first migration must create schema_migrations, got %s", all[0].name)
	}

	var applied []string
	for _, m := range all {
		if done[m.version] {
			continue
		}
		if err := apply(db, m); err != nil {
			return applied, err
		}
		applied = append(applied, m.name)
		if onApplied != nil {
			onApplied(m)
		}
	}
	return applied, nil
}

func apply(db *sql.DB, m migration) error {
	body, err := migrations.ReadFile(path.Join(migrationsDir, m.name))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.name)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin migration %s", m.name)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(body)); err != nil {
		return errors.Wrapf(err, "migration %s failed", m.name)
	}
	// 000 creates the table it is recorded in
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return errors.Wrapf(err, "record migration %s", m.name)
	}
	return errors.Wrapf(tx.Commit(), "commit migration %s", m.name)
}
