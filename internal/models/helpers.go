// Package models defines the records exchanged with the AdvocAI backend.
//
// The backend owns every record; the client reads and writes them verbatim
// and never derives or caches them beyond a single view.
package models

import "strings"

// FirstNonEmpty returns the first non-blank value, or "" when all are blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
