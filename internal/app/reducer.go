package app

import (
	"github.com/hession/memhub/internal/api"
)

// Reducers take a state and return the next one. They never modify the slices
// of their input.

func reduceNavigate(s State, page Page) State {
	s = s.clone()
	if page == PageDetail {
		if s.SelectedID != 0 {
			s.DetailOpen = true
		}
		return s
	}
	s.Page = page
	s = closeDetail(s)
	if page == PageList {
		s.SearchQuery = ""
	}
	return s
}

func reduceLoaded(s State, memories []api.Memory) State {
	s = s.clone()
	s.Memories = cloneMemories(memories)
	s.version++
	return s
}

func reduceCreated(s State, m api.Memory) State {
	s = s.clone()
	s.Memories = append([]api.Memory{m}, s.Memories...)
	s.version++
	s.Page = PageList
	s.RefreshCounter++
	return s
}

func reduceUpdated(s State, m api.Memory) State {
	s = s.clone()
	replaceByID(s.Memories, m)
	replaceByID(s.SearchResults, m)
	if s.Detail != nil && s.Detail.ID == m.ID {
		d := m
		s.Detail = &d
	}
	s.version++
	s.RefreshCounter++
	return s
}

func reduceDeleted(s State, id int64) State {
	s = s.clone()
	s.Memories = removeByID(s.Memories, id)
	s.SearchResults = removeByID(s.SearchResults, id)
	if s.SelectedID == id {
		s = closeDetail(s)
	}
	s.version++
	s.RefreshCounter++
	return s
}

func reduceSearchResults(s State, results []api.Memory) State {
	s = s.clone()
	s.SearchResults = cloneMemories(results)
	s.Page = PageSearch
	return s
}

// reduceSearchCleared empties the results and returns to the list. It also
// invalidates any search still in flight.
func reduceSearchCleared(s State) State {
	s = s.clone()
	s.SearchQuery = ""
	s.SearchResults = []api.Memory{}
	s.Page = PageList
	s.searchGen++
	return s
}

func reduceSelect(s State, id int64) State {
	s = s.clone()
	s.SelectedID = id
	s.DetailOpen = true
	s.Detail = nil
	s.detailGen++
	return s
}

func reduceCloseDetail(s State) State {
	return closeDetail(s.clone())
}

func closeDetail(s State) State {
	if !s.DetailOpen && s.SelectedID == 0 {
		return s
	}
	s.DetailOpen = false
	s.SelectedID = 0
	s.Detail = nil
	s.detailGen++
	return s
}

func replaceByID(ms []api.Memory, m api.Memory) {
	for i := range ms {
		if ms[i].ID == m.ID {
			ms[i] = m
		}
	}
}

func removeByID(ms []api.Memory, id int64) []api.Memory {
	out := make([]api.Memory, 0, len(ms))
	for _, m := range ms {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
