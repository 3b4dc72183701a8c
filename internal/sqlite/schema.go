package sqlite

// Schema DDL for all tables.
const (
	createManifests = `CREATE TABLE manifests (
    manifest_id TEXT PRIMARY KEY,
    path TEXT NOT NULL,
    checksum TEXT NOT NULL,
    imported_at TEXT NOT NULL
);`

	createRequirements = `CREATE TABLE requirements (
    requirement_id TEXT PRIMARY KEY,
    manifest_id TEXT,
    name TEXT NOT NULL,
    normalized_name TEXT NOT NULL,
    category TEXT NOT NULL,
    extras TEXT NOT NULL,
    constraints TEXT NOT NULL,
    source_scheme TEXT,
    source_url TEXT,
    source_revision TEXT,
    comment TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (manifest_id) REFERENCES manifests(manifest_id)
);`
)

// Index DDL for common queries. The unique index enforces one declaration
// per package per category within a manifest.
const (
	idxRequirementsUnique   = `CREATE UNIQUE INDEX idx_requirements_unique ON requirements(manifest_id, category, normalized_name);`
	idxRequirementsCategory = `CREATE INDEX idx_requirements_category ON requirements(category);`
	idxRequirementsName     = `CREATE INDEX idx_requirements_name ON requirements(normalized_name);`
	idxManifestsPath        = `CREATE INDEX idx_manifests_path ON manifests(path);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createManifests,
	createRequirements,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxRequirementsUnique,
	idxRequirementsCategory,
	idxRequirementsName,
	idxManifestsPath,
}
