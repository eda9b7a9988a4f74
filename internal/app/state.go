// Package app holds the client session state and the operations that drive it.
package app

import (
	"errors"
	"fmt"

	"github.com/hession/memhub/internal/api"
	"github.com/hession/memhub/internal/suggest"
)

// Page is the screen currently shown
type Page string

const (
	PageList    Page = "list"
	PageCreate  Page = "create"
	PageDetail  Page = "detail"
	PageSearch  Page = "search"
	PageProfile Page = "profile"
)

// ParsePage converts a page name, returning an error for unknown names
func ParsePage(s string) (Page, error) {
	switch p := Page(s); p {
	case PageList, PageCreate, PageDetail, PageSearch, PageProfile:
		return p, nil
	}
	return "", fmt.Errorf("unknown page: %q", s)
}

// showsSuggestions reports whether entering the page regenerates suggestions
func (p Page) showsSuggestions() bool {
	return p == PageList || p == PageCreate || p == PageSearch
}

// needsCollection reports whether entering the page loads the collection
func (p Page) needsCollection() bool {
	return p == PageList || p == PageProfile
}

// SearchMode selects the backend search index
type SearchMode string

const (
	SearchVector SearchMode = "vector"
	SearchSQLite SearchMode = "sqlite"
)

// ParseSearchMode converts a mode name, returning an error for unknown names
func ParseSearchMode(s string) (SearchMode, error) {
	switch m := SearchMode(s); m {
	case SearchVector, SearchSQLite:
		return m, nil
	}
	return "", fmt.Errorf("unknown search mode: %q (want vector or sqlite)", s)
}

// Label is the human-readable name of the mode
func (m SearchMode) Label() string {
	if m == SearchSQLite {
		return "text"
	}
	return "semantic"
}

var (
	// ErrBusy is returned when a create, update or delete is already in flight
	ErrBusy = errors.New("another change is still being submitted")
	// ErrStale is returned when a response arrived after the state it was requested for changed
	ErrStale = errors.New("response discarded: state changed while the request was in flight")
	// ErrNoSelection is returned by detail operations when no memory is selected
	ErrNoSelection = errors.New("no memory selected")
)

// TagStat counts the memories carrying a tag
type TagStat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// State is a snapshot of the session
type State struct {
	Page           Page                 `json:"page"`
	Memories       []api.Memory         `json:"memories"`
	SearchResults  []api.Memory         `json:"search_results"`
	SearchQuery    string               `json:"search_query"`
	SearchMode     SearchMode           `json:"search_mode"`
	SelectedID     int64                `json:"selected_id,omitempty"`
	DetailOpen     bool                 `json:"detail_open"`
	Detail         *api.Memory          `json:"detail,omitempty"`
	Loading        bool                 `json:"loading"`
	Error          string               `json:"error,omitempty"`
	RefreshCounter int                  `json:"refresh_counter"`
	Suggestions    []suggest.Suggestion `json:"suggestions"`
	Stats          api.Stats            `json:"stats"`

	// version changes whenever Memories is replaced or edited
	version   uint64
	searchGen uint64
	detailGen uint64
	statsGen  uint64
}

// initialState is the state before any page has been entered
func initialState(mode SearchMode) State {
	return State{
		Page:          PageList,
		Memories:      []api.Memory{},
		SearchResults: []api.Memory{},
		SearchMode:    mode,
		Suggestions:   []suggest.Suggestion{},
	}
}

// clone returns a copy that shares no slices with s
func (s State) clone() State {
	s.Memories = cloneMemories(s.Memories)
	s.SearchResults = cloneMemories(s.SearchResults)
	s.Suggestions = append([]suggest.Suggestion{}, s.Suggestions...)
	if s.Detail != nil {
		d := *s.Detail
		s.Detail = &d
	}
	return s
}

func cloneMemories(ms []api.Memory) []api.Memory {
	out := make([]api.Memory, len(ms))
	copy(out, ms)
	return out
}

// Find returns the memory with id from the collection or the search results
func (s State) Find(id int64) (api.Memory, bool) {
	for _, m := range s.Memories {
		if m.ID == id {
			return m, true
		}
	}
	for _, m := range s.SearchResults {
		if m.ID == id {
			return m, true
		}
	}
	return api.Memory{}, false
}

// Visible returns the memories shown on the current page
func (s State) Visible() []api.Memory {
	if s.Page == PageSearch {
		return s.SearchResults
	}
	return s.Memories
}
