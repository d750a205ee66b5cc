package script

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrNotInPack indicates the requested module is absent from the pack.
var ErrNotInPack = errors.New("module not in pack")

// Pack is a single-file SQLite database holding compiled modules in
// wire form, keyed by module name. Shipping builds distribute one pack
// instead of a loose script directory.
type Pack struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// OpenPack opens (or creates) a script pack at the given path.
func OpenPack(path string) (*Pack, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening pack: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS modules (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating modules table: %w", err)
	}

	return &Pack{db: db, path: path}, nil
}

// Close closes the underlying database.
func (p *Pack) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Write stores a module's wire-form bytes, replacing any previous copy.
func (p *Pack) Write(name string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.db.Exec(
		"INSERT OR REPLACE INTO modules (name, data) VALUES (?, ?)",
		name, data,
	)
	if err != nil {
		return fmt.Errorf("writing module %q: %w", name, err)
	}
	return nil
}

// Read returns a module's wire-form bytes.
func (p *Pack) Read(name string) ([]byte, error) {
	var data []byte
	err := p.db.QueryRow("SELECT data FROM modules WHERE name = ?", name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrNotInPack, name)
		}
		return nil, fmt.Errorf("reading module %q: %w", name, err)
	}
	return data, nil
}

// Names lists every module in the pack.
func (p *Pack) Names() ([]string, error) {
	rows, err := p.db.Query("SELECT name FROM modules ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
