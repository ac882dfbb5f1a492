package ckan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TruncationMarker is appended by the MCP server when a tool response was cut
// to fit its character budget. Everything from the marker on is dropped.
const TruncationMarker = "[Response truncated"

// StripTruncation returns the JSON prefix of a possibly truncated tool text.
func StripTruncation(text string) string {
	if i := strings.Index(text, TruncationMarker); i >= 0 {
		return strings.TrimSpace(text[:i])
	}
	return text
}

// DecodeSearch parses a package_search payload. Result entries that are not
// objects are skipped.
func DecodeSearch(data []byte) (*SearchResult, error) {
	var p searchPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, serviceError(fmt.Sprintf("JSON parse error: %v", err))
	}
	if msg, ok := errorMessage(p.Error); ok {
		return nil, serviceError(msg)
	}
	if p.Results == nil {
		return nil, fmt.Errorf("%w: missing results", ErrUnexpectedResponse)
	}
	res := &SearchResult{Results: make([]Dataset, 0, len(*p.Results))}
	for _, raw := range *p.Results {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		var d Dataset
		if err := json.Unmarshal(raw, &d); err != nil {
			continue
		}
		res.Results = append(res.Results, d)
	}
	if count := bytes.TrimSpace(p.Count); len(count) > 0 && !bytes.Equal(count, []byte("null")) {
		res.Count = rawObject{"count": count}.integer("count")
	} else {
		res.Count = len(res.Results)
	}
	return res, nil
}

// DecodeDatastore parses a datastore_search payload. Field entries that are
// not objects are skipped.
func DecodeDatastore(data []byte) (*DatastoreResult, error) {
	var p datastorePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, serviceError(fmt.Sprintf("JSON parse error: %v", err))
	}
	if msg, ok := errorMessage(p.Error); ok {
		return nil, serviceError(msg)
	}
	if p.Records == nil {
		return nil, fmt.Errorf("%w: missing records", ErrUnexpectedResponse)
	}
	res := &DatastoreResult{
		ResourceID: p.ResourceID,
		Fields:     make([]DatastoreField, 0, len(p.Fields)),
		Records:    *p.Records,
		Total:      p.Total,
	}
	for _, raw := range p.Fields {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		var f DatastoreField
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		res.Fields = append(res.Fields, f)
	}
	return res, nil
}

// DecodeSearchText decodes MCP tool text for package_search.
func DecodeSearchText(text string) (*SearchResult, error) {
	return DecodeSearch([]byte(StripTruncation(text)))
}

// DecodeDatastoreText decodes MCP tool text for datastore_search.
func DecodeDatastoreText(text string) (*DatastoreResult, error) {
	return DecodeDatastore([]byte(StripTruncation(text)))
}

// errorMessage extracts a message from an "error" value, which CKAN sends
// either as a string or as an object with a message field.
func errorMessage(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message, true
	}
	return string(raw), true
}
