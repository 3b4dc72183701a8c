// Package types defines the Catalog and Table interfaces, the requirement
// data model (requirements, constraints, source locators, manifest records),
// and standard error types for the Pantry manifest system.
package types
