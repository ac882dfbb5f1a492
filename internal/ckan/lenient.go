package ckan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Portals are loose about field types: booleans arrive as "True", counts as
// strings, descriptions as numbers. The decoders below read what they can and
// leave the rest at its zero value so scoring reports it as missing.

type rawObject map[string]json.RawMessage

func decodeObject(data []byte, what string) (rawObject, bool, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil, false, nil
	}
	var obj rawObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false, fmt.Errorf("%s must be a JSON object: %w", what, err)
	}
	return obj, true, nil
}

// str reads a string. Numbers and booleans keep their literal text; null,
// arrays and objects read as empty.
func (o rawObject) str(key string) string {
	raw := bytes.TrimSpace(o[key])
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		return ""
	case '{', '[', 'n':
		return ""
	default:
		return string(raw)
	}
}

// boolean accepts true/false, "true"/"True"/"1" style strings and numbers.
func (o rawObject) boolean(key string) bool {
	raw := bytes.TrimSpace(o[key])
	if len(raw) == 0 {
		return false
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return n != 0
	}
	b, _ = strconv.ParseBool(strings.TrimSpace(o.str(key)))
	return b
}

func (o rawObject) integer(key string) int {
	raw := bytes.TrimSpace(o[key])
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return int(n)
	}
	i, _ := strconv.Atoi(strings.TrimSpace(o.str(key)))
	return i
}

// objects returns the object elements of an array field. Anything else is
// dropped.
func (o rawObject) objects(key string) []rawObject {
	var items []json.RawMessage
	if json.Unmarshal(o[key], &items) != nil {
		return nil
	}
	out := make([]rawObject, 0, len(items))
	for _, item := range items {
		var obj rawObject
		if json.Unmarshal(item, &obj) == nil && obj != nil {
			out = append(out, obj)
		}
	}
	return out
}

// UnmarshalJSON decodes a dataset, dropping fields of the wrong type.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	obj, ok, err := decodeObject(data, "dataset")
	if err != nil || !ok {
		return err
	}
	*d = Dataset{
		ID:               obj.str("id"),
		Name:             obj.str("name"),
		Title:            obj.str("title"),
		Notes:            obj.str("notes"),
		LicenseID:        obj.str("license_id"),
		Author:           obj.str("author"),
		AuthorEmail:      obj.str("author_email"),
		Maintainer:       obj.str("maintainer"),
		MaintainerEmail:  obj.str("maintainer_email"),
		NumResources:     obj.integer("num_resources"),
		MetadataModified: obj.str("metadata_modified"),
	}

	var org rawObject
	if json.Unmarshal(obj["organization"], &org) == nil && org != nil {
		d.Organization = &Organization{ID: org.str("id"), Name: org.str("name"), Title: org.str("title")}
	}
	for _, e := range obj.objects("extras") {
		var value any
		_ = json.Unmarshal(e["value"], &value)
		d.Extras = append(d.Extras, Extra{Key: e.str("key"), Value: value})
	}
	for _, t := range obj.objects("tags") {
		d.Tags = append(d.Tags, Tag{Name: t.str("name"), DisplayName: t.str("display_name")})
	}
	for _, r := range obj.objects("resources") {
		d.Resources = append(d.Resources, resourceFrom(r))
	}
	return nil
}

// UnmarshalJSON decodes a resource, dropping fields of the wrong type.
func (r *Resource) UnmarshalJSON(data []byte) error {
	obj, ok, err := decodeObject(data, "resource")
	if err != nil || !ok {
		return err
	}
	*r = resourceFrom(obj)
	return nil
}

func resourceFrom(obj rawObject) Resource {
	return Resource{
		ID:              obj.str("id"),
		Name:            obj.str("name"),
		Format:          obj.str("format"),
		URL:             obj.str("url"),
		Description:     obj.str("description"),
		DatastoreActive: obj.boolean("datastore_active"),
	}
}
