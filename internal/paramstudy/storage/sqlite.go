package storage

import (
	"bytes"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/paramstudy/internal/paramstudy"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaVersion is the latest migration in migrationsFS.
const schemaVersion = 1

var sqliteMagic = []byte("SQLite format 3\x00")

// migrateUp brings db to the latest study schema.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// m is not closed: closing it would close db.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// withTempDB runs fn against a SQLite database in a private temporary
// file, seeded with data when it is non-nil, and returns the file contents
// after the database is closed.
func withTempDB(data []byte, fn func(db *sql.DB) error) ([]byte, error) {
	dir, err := os.MkdirTemp("", "paramstudy-sqlite-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "study.db")
	if data != nil {
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := fn(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Close(); err != nil {
		return nil, fmt.Errorf("failed to close sqlite database: %w", err)
	}
	return os.ReadFile(path)
}

func encodeSQLite(st *paramstudy.Study) ([]byte, error) {
	return withTempDB(nil, func(db *sql.DB) error {
		if err := migrateUp(db); err != nil {
			return err
		}
		return insertStudy(db, st)
	})
}

func insertStudy(db *sql.DB, st *paramstudy.Study) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	attrs := [][2]string{
		{metaFormatVersion, formatVersion},
		{metaMethod, string(st.Method())},
		{metaTemplate, string(st.SetNameTemplate())},
		{metaStudyID, st.ID().String()},
	}
	for _, kv := range attrs {
		if _, err := tx.Exec(`INSERT INTO study_attributes (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to insert attribute %s: %w", kv[0], err)
		}
	}

	names := st.ParameterNames()
	for pos, name := range names {
		k, _ := st.ColumnKind(name)
		if _, err := tx.Exec(`INSERT INTO parameters (position, name, kind) VALUES (?, ?, ?)`, pos, name, k.String()); err != nil {
			return fmt.Errorf("failed to insert parameter %q: %w", name, err)
		}
	}

	setStmt, err := tx.Prepare(`INSERT INTO parameter_sets (set_index, set_name, set_hash) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer setStmt.Close()
	valueStmt, err := tx.Prepare(`INSERT INTO parameter_values (set_index, position, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer valueStmt.Close()

	for _, r := range st.Rows() {
		if _, err := setStmt.Exec(r.Index, r.Name, r.Hash); err != nil {
			return fmt.Errorf("failed to insert %s: %w", r.Name, err)
		}
		for pos, name := range names {
			if _, err := valueStmt.Exec(r.Index, pos, r.Set[name].Text()); err != nil {
				return fmt.Errorf("failed to insert %s of %s: %w", name, r.Name, err)
			}
		}
	}
	return tx.Commit()
}

func decodeSQLite(path string, data []byte) (*paramstudy.Study, error) {
	if !bytes.HasPrefix(data, sqliteMagic) {
		return nil, formatError(path, "not a SQLite database", nil)
	}
	var st *paramstudy.Study
	_, err := withTempDB(data, func(db *sql.DB) error {
		var err error
		st, err = readStudy(path, db)
		return err
	})
	return st, err
}

func readStudy(path string, db *sql.DB) (*paramstudy.Study, error) {
	var version int
	var dirty bool
	if err := db.QueryRow(`SELECT version, dirty FROM schema_migrations`).Scan(&version, &dirty); err != nil {
		return nil, formatError(path, "missing schema version", err)
	}
	if version != schemaVersion || dirty {
		return nil, formatError(path, fmt.Sprintf("unsupported schema version %d (dirty=%v)", version, dirty), nil)
	}

	stored := make(map[string]string)
	rows, err := db.Query(`SELECT key, value FROM study_attributes`)
	if err != nil {
		return nil, formatError(path, "cannot read study attributes", err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return nil, formatError(path, "cannot read study attributes", err)
		}
		stored[k] = v
	}
	rows.Close()
	attrs, err := readAttributes(path, func(key string) (string, bool) {
		v, ok := stored[key]
		return v, ok
	})
	if err != nil {
		return nil, err
	}

	var names []string
	var kinds []paramstudy.Kind
	rows, err = db.Query(`SELECT position, name, kind FROM parameters ORDER BY position`)
	if err != nil {
		return nil, formatError(path, "cannot read parameters", err)
	}
	for rows.Next() {
		var pos int
		var name, kind string
		if err := rows.Scan(&pos, &name, &kind); err != nil {
			rows.Close()
			return nil, formatError(path, "cannot read parameters", err)
		}
		if pos != len(names) {
			rows.Close()
			return nil, formatError(path, fmt.Sprintf("parameter positions are not contiguous at %q", name), nil)
		}
		k, err := paramstudy.ParseKind(kind)
		if err != nil {
			rows.Close()
			return nil, formatError(path, fmt.Sprintf("parameter %q", name), err)
		}
		names = append(names, name)
		kinds = append(kinds, k)
	}
	rows.Close()

	var setRows []paramstudy.Row
	byIndex := make(map[int]int)
	rows, err = db.Query(`SELECT set_index, set_name, set_hash FROM parameter_sets ORDER BY set_index`)
	if err != nil {
		return nil, formatError(path, "cannot read parameter sets", err)
	}
	for rows.Next() {
		var r paramstudy.Row
		if err := rows.Scan(&r.Index, &r.Name, &r.Hash); err != nil {
			rows.Close()
			return nil, formatError(path, "cannot read parameter sets", err)
		}
		r.Set = make(paramstudy.ParameterSet, len(names))
		byIndex[r.Index] = len(setRows)
		setRows = append(setRows, r)
	}
	rows.Close()

	rows, err = db.Query(`SELECT set_index, position, value FROM parameter_values`)
	if err != nil {
		return nil, formatError(path, "cannot read parameter values", err)
	}
	defer rows.Close()
	for rows.Next() {
		var idx, pos int
		var text string
		if err := rows.Scan(&idx, &pos, &text); err != nil {
			return nil, formatError(path, "cannot read parameter values", err)
		}
		i, ok := byIndex[idx]
		if !ok || pos < 0 || pos >= len(names) {
			return nil, formatError(path, fmt.Sprintf("orphan parameter value (set %d, position %d)", idx, pos), nil)
		}
		v, err := paramstudy.ParseText(kinds[pos], text)
		if err != nil {
			return nil, formatError(path, fmt.Sprintf("parameter %q of %s", names[pos], setRows[i].Name), err)
		}
		setRows[i].Set[names[pos]] = v
	}
	if err := rows.Err(); err != nil {
		return nil, formatError(path, "cannot read parameter values", err)
	}

	return attrs.study(path, names, setRows)
}
