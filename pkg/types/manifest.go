package types

import "time"

// ManifestRecord is a cataloged snapshot of a manifest file: where it came
// from, a checksum of its bytes, and when it was imported. The declarations
// themselves live in the requirements table, keyed by ManifestID.
type ManifestRecord struct {
	ManifestID string    `json:"manifest_id"`
	Path       string    `json:"path"`
	Checksum   string    `json:"checksum"`
	ImportedAt time.Time `json:"imported_at"`
}
