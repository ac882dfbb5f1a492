// Package resource decides how a CKAN resource can be analyzed.
package resource

import (
	"strings"

	"github.com/rpggio/ckanflow/internal/ckan"
)

// Kind is the analysis route for a resource.
type Kind string

const (
	KindDatastore Kind = "datastore"
	KindCSV       Kind = "csv"
	KindUnknown   Kind = "unknown"
)

// Kinds lists every Kind.
func Kinds() []Kind {
	return []Kind{KindDatastore, KindCSV, KindUnknown}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDatastore, KindCSV, KindUnknown:
		return true
	}
	return false
}

// Classify picks the analysis route for r. A DataStore-backed resource is
// always KindDatastore, even when its format is CSV.
func Classify(r ckan.Resource) Kind {
	switch {
	case r.DatastoreActive:
		return KindDatastore
	case strings.EqualFold(strings.TrimSpace(r.Format), "csv"):
		return KindCSV
	default:
		return KindUnknown
	}
}
