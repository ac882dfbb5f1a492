package ckan

import "encoding/json"

// Dataset is a CKAN package as returned by package_search / package_show.
type Dataset struct {
	ID               string        `json:"id,omitempty"`
	Name             string        `json:"name"`
	Title            string        `json:"title"`
	Notes            string        `json:"notes"`
	LicenseID        string        `json:"license_id,omitempty"`
	Author           string        `json:"author,omitempty"`
	AuthorEmail      string        `json:"author_email,omitempty"`
	Maintainer       string        `json:"maintainer,omitempty"`
	MaintainerEmail  string        `json:"maintainer_email,omitempty"`
	Organization     *Organization `json:"organization,omitempty"`
	Extras           []Extra       `json:"extras,omitempty"`
	Tags             []Tag         `json:"tags,omitempty"`
	Resources        []Resource    `json:"resources,omitempty"`
	NumResources     int           `json:"num_resources,omitempty"`
	MetadataModified string        `json:"metadata_modified,omitempty"`
}

// Organization is the publisher a dataset belongs to. A non-nil value counts
// as assigned even when every field is empty.
type Organization struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Title string `json:"title,omitempty"`
}

// Tag is a free-text keyword attached to a dataset.
type Tag struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// Extra is a custom key/value pair. Values are usually strings but portals
// are free to store numbers or objects.
type Extra struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Resource is a single downloadable or queryable artifact of a dataset.
type Resource struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name,omitempty"`
	Format          string `json:"format"`
	URL             string `json:"url"`
	Description     string `json:"description,omitempty"`
	DatastoreActive bool   `json:"datastore_active"`
}

// HasExtra reports whether any extra uses one of keys.
func (d Dataset) HasExtra(keys ...string) bool {
	for _, e := range d.Extras {
		for _, k := range keys {
			if e.Key == k {
				return true
			}
		}
	}
	return false
}

// ExtraValue returns the value of the last extra named key, mirroring a
// key/value map built from the ordered list.
func (d Dataset) ExtraValue(key string) (any, bool) {
	var (
		val   any
		found bool
	)
	for _, e := range d.Extras {
		if e.Key == key {
			val, found = e.Value, true
		}
	}
	return val, found
}

// SearchResult is the payload of package_search.
type SearchResult struct {
	Count   int       `json:"count"`
	Results []Dataset `json:"results"`
}

// DatastoreField describes a column of a DataStore table.
type DatastoreField struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

// DatastoreResult is the payload of datastore_search.
type DatastoreResult struct {
	ResourceID string           `json:"resource_id,omitempty"`
	Fields     []DatastoreField `json:"fields"`
	Records    []map[string]any `json:"records"`
	Total      int              `json:"total,omitempty"`
}

// FieldIDs returns the column names in order.
func (r DatastoreResult) FieldIDs() []string {
	ids := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		ids = append(ids, f.ID)
	}
	return ids
}

type searchPayload struct {
	Error   json.RawMessage    `json:"error,omitempty"`
	Count   json.RawMessage    `json:"count,omitempty"`
	Results *[]json.RawMessage `json:"results,omitempty"`
}

type datastorePayload struct {
	Error      json.RawMessage   `json:"error,omitempty"`
	ResourceID string            `json:"resource_id,omitempty"`
	Fields     []json.RawMessage `json:"fields,omitempty"`
	Records    *[]map[string]any `json:"records,omitempty"`
	Total      int               `json:"total,omitempty"`
}
