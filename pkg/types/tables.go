package types

// Standard table names for Catalog.GetTable.
const (
	TableRequirements = "requirements"
	TableManifests    = "manifests"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	TableRequirements,
	TableManifests,
}
