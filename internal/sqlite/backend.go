// Package sqlite implements the SQLite storage backend for the Pantry
// catalog. SQLite serves as the query engine; JSONL files in the data
// directory are the source of truth and are reloaded on every Attach.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Backend implements types.Catalog using SQLite as the query engine and
// JSONL files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	tables   map[string]types.Table
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{
		tables: make(map[string]types.Table),
	}
}

// GetTable returns a Table interface for the specified table name.
// Returns ErrTableNotFound if the table name is not recognized.
// Returns ErrCatalogDetached if the backend is not attached.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCatalogDetached
	}

	table, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return table, nil
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, initializes the SQLite schema,
// loads JSONL files, and creates table accessors.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// Remove any existing database file; the JSONL files are the source
	// of truth and the schema is rebuilt fresh on every attach.
	dbPath := filepath.Join(dataDir, "pantry.db")
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	for _, ddl := range append(schemaDDL, indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.config.DataDir = dataDir

	if err := b.initJSONLFiles(); err != nil {
		db.Close()
		return err
	}

	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.attached = true

	b.tables[types.TableManifests] = &manifestsTable{backend: b}
	b.tables[types.TableRequirements] = &requirementsTable{backend: b}

	return nil
}

// Detach releases all resources held by the backend. After Detach, all
// operations return ErrCatalogDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil // idempotent
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.tables = make(map[string]types.Table)

	return nil
}

// newUUID generates a UUID v7 string for entity IDs, with a v4 fallback.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
