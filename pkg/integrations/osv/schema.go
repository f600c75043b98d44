package osv

import (
	"encoding/json"
	"time"
)

// See https://ossf.github.io/osv-schema/ for the format. Only the fields
// depstatus reads are decoded.
type (
	advisory struct {
		ID         string      `json:"id"`
		Withdrawn  time.Time   `json:"withdrawn"`
		Aliases    []string    `json:"aliases"`
		Summary    string      `json:"summary"`
		Affected   []affected  `json:"affected"`
		References []reference `json:"references"`
	}

	affected struct {
		Package  _package        `json:"package"`
		Ranges   []_range        `json:"ranges"`
		Versions []string        `json:"versions"`
		Database json.RawMessage `json:"database_specific"`
	}

	_package struct {
		Ecosystem string `json:"ecosystem"`
		Name      string `json:"name"`
		PURL      string `json:"purl"`
	}

	_range struct {
		Type   string       `json:"type"`
		Events []rangeEvent `json:"events"`
	}

	rangeEvent struct {
		Introduced   string `json:"introduced"`
		Fixed        string `json:"fixed"`
		LastAffected string `json:"last_affected"`
		Limit        string `json:"limit"`
	}

	reference struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	}

	// rustsecSpecific is the database_specific block of RustSec records.
	rustsecSpecific struct {
		Informational string `json:"informational"`
	}
)

// informational reports whether the entry is a RustSec notice (for
// example an unmaintained crate) rather than a vulnerability.
func (a *affected) informational() bool {
	if len(a.Database) == 0 {
		return false
	}
	var db rustsecSpecific
	if err := json.Unmarshal(a.Database, &db); err != nil {
		return false
	}
	return db.Informational != ""
}
