package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Memory is a note as returned by the memory service
type Memory struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	// Relevance is only set on search results, in [0,1]
	Relevance *float64 `json:"relevance,omitempty"`
}

// UnmarshalJSON decodes a memory, accepting the service's offset-less timestamps
func (m *Memory) UnmarshalJSON(data []byte) error {
	type alias Memory
	aux := struct {
		*alias
		CreatedAt Timestamp  `json:"created_at"`
		UpdatedAt *Timestamp `json:"updated_at"`
	}{alias: (*alias)(m)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.CreatedAt = aux.CreatedAt.Time
	m.UpdatedAt = nil
	if aux.UpdatedAt != nil && !aux.UpdatedAt.IsZero() {
		t := aux.UpdatedAt.Time
		m.UpdatedAt = &t
	}
	return nil
}

// timestampLayouts are tried in order. The service stores Python isoformat()
// values without an offset, and SQLite defaults use a space separator.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp is a time decoded from RFC 3339 or from an offset-less ISO 8601
// value, which is read as local time
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s with the layouts the service is known to emit
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		loc := time.Local
		if layout == time.RFC3339Nano {
			loc = time.UTC
		}
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON accepts a string timestamp or null
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MemoryInput is the body of create and update requests
type MemoryInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// MarshalJSON always encodes tags as an array
func (in MemoryInput) MarshalJSON() ([]byte, error) {
	type alias MemoryInput
	a := alias(in)
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return json.Marshal(a)
}

// Stats holds the row counts of both backend stores
type Stats struct {
	SQLiteCount int `json:"sqlite_count"`
	ChromaCount int `json:"chroma_count"`
}

// searchRequest is the body of both search endpoints
type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// errorResponse is the error body shape; detail is a string for
// application errors and a list for request validation errors
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

type validationDetail struct {
	Msg string `json:"msg"`
}
