// Package apitest provides an in-memory fake of the memory service REST API
// for tests of code that talks to it over HTTP.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hession/memhub/internal/api"
)

// Prefix is the route prefix the fake serves under
const Prefix = "/api/v1"

// Server is a fake memory service backed by a slice
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	memories []api.Memory
	nextID   int64
	failures map[string]failure
	calls    []string
	clock    func() time.Time
}

type failure struct {
	status int
	body   string
}

// New starts a fake server that is closed when the test ends
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		nextID:   1,
		failures: make(map[string]failure),
		clock:    func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route(Prefix, func(r chi.Router) {
		r.Post("/search/", s.handleSearch("search", vectorScore))
		r.Post("/search/sqlite", s.handleSearch("search_sqlite", textScore))

		r.Get("/memories/", s.handleList)
		r.Post("/memories/", s.handleCreate)
		r.Get("/memories/stats", s.handleStats)
		r.Get("/memories/{id}", s.handleGet)
		r.Put("/memories/{id}", s.handleUpdate)
		r.Delete("/memories/{id}", s.handleDelete)
	})
	return r
}

// Seed adds memories as if they were created earlier; zero IDs are assigned
func (s *Server) Seed(ms ...api.Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range ms {
		if m.ID == 0 {
			m.ID = s.nextID
		}
		if m.ID >= s.nextID {
			s.nextID = m.ID + 1
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = s.clock()
		}
		if m.Tags == nil {
			m.Tags = []string{}
		}
		s.memories = append(s.memories, m)
	}
}

// FailNext makes the next call of op ("search", "search_sqlite", "create",
// "list", "get", "update", "delete", "stats") answer with status and raw body
func (s *Server) FailNext(op string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = failure{status: status, body: body}
}

// Memories returns a copy of the stored memories
func (s *Server) Memories() []api.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Memory(nil), s.memories...)
}

// Calls returns "METHOD path" for every request received
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// BaseURL is the value to pass to api.New together with Prefix
func (s *Server) BaseURL() string {
	return s.URL
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// takeFailure consumes a scripted failure for op and writes it
func (s *Server) takeFailure(w http.ResponseWriter, op string) bool {
	s.mu.Lock()
	f, ok := s.failures[op]
	if ok {
		delete(s.failures, op)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte(f.body))
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// isoLayout is Python's datetime.isoformat() for a naive datetime, the form
// the real service stores and returns
const isoLayout = "2006-01-02T15:04:05.000000"

// wireMemory is a memory as the service serialises it
type wireMemory struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt *string  `json:"updated_at"`
	Relevance *float64 `json:"relevance,omitempty"`
}

func toWire(m api.Memory) wireMemory {
	w := wireMemory{
		ID:        m.ID,
		Title:     m.Title,
		Content:   m.Content,
		Tags:      m.Tags,
		CreatedAt: m.CreatedAt.Format(isoLayout),
		Relevance: m.Relevance,
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	if m.UpdatedAt != nil {
		u := m.UpdatedAt.Format(isoLayout)
		w.UpdatedAt = &u
	}
	return w
}

func toWireList(ms []api.Memory) []wireMemory {
	out := make([]wireMemory, len(ms))
	for i, m := range ms {
		out[i] = toWire(m)
	}
	return out
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

type searchBody struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type scoreFunc func(m api.Memory, query string) float64

func (s *Server) handleSearch(op string, score scoreFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.takeFailure(w, op) {
			return
		}

		var body searchBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if body.Limit <= 0 {
			body.Limit = 3
		}

		s.mu.Lock()
		var hits []api.Memory
		for _, m := range s.memories {
			if rel := score(m, body.Query); rel > 0 {
				m.Relevance = &rel
				hits = append(hits, m)
			}
		}
		s.mu.Unlock()

		sort.SliceStable(hits, func(i, j int) bool { return *hits[i].Relevance > *hits[j].Relevance })
		if len(hits) > body.Limit {
			hits = hits[:body.Limit]
		}
		writeJSON(w, http.StatusOK, toWireList(hits))
	}
}

// vectorScore is the fraction of query words that appear anywhere in the memory
func vectorScore(m api.Memory, query string) float64 {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return 0
	}
	haystack := strings.ToLower(m.Title + " " + m.Content + " " + strings.Join(m.Tags, " "))
	found := 0
	for _, w := range words {
		if strings.Contains(haystack, w) {
			found++
		}
	}
	return float64(found) / float64(len(words))
}

// textScore is 1 for a substring match on title or content, 0 otherwise
func textScore(m api.Memory, query string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	if strings.Contains(strings.ToLower(m.Title), q) || strings.Contains(strings.ToLower(m.Content), q) {
		return 1
	}
	return 0
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.takeFailure(w, "list") {
		return
	}
	writeJSON(w, http.StatusOK, toWireList(s.Memories()))
}

type memoryBody struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
}

func (b memoryBody) validate() []map[string]string {
	var errs []map[string]string
	if b.Title == nil {
		errs = append(errs, map[string]string{"msg": "title: field required"})
	}
	if b.Content == nil {
		errs = append(errs, map[string]string{"msg": "content: field required"})
	}
	if b.Tags == nil {
		errs = append(errs, map[string]string{"msg": "tags: field required"})
	}
	return errs
}

func (s *Server) decodeMemoryBody(w http.ResponseWriter, r *http.Request) (memoryBody, bool) {
	var body memoryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return body, false
	}
	if errs := body.validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": errs})
		return body, false
	}
	return body, true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if s.takeFailure(w, "create") {
		return
	}
	body, ok := s.decodeMemoryBody(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	m := api.Memory{
		ID:        s.nextID,
		Title:     *body.Title,
		Content:   *body.Content,
		Tags:      body.Tags,
		CreatedAt: s.clock(),
	}
	s.nextID++
	s.memories = append([]api.Memory{m}, s.memories...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, toWire(m))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.takeFailure(w, "stats") {
		return
	}
	s.mu.Lock()
	n := len(s.memories)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, api.Stats{SQLiteCount: n, ChromaCount: n})
}

// find returns the index of id, or -1. Caller holds mu.
func (s *Server) find(id int64) int {
	for i, m := range s.memories {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid memory id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if s.takeFailure(w, "get") {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	i := s.find(id)
	var m api.Memory
	if i >= 0 {
		m = s.memories[i]
	}
	s.mu.Unlock()

	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Memory not found")
		return
	}
	writeJSON(w, http.StatusOK, toWire(m))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if s.takeFailure(w, "update") {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	body, ok := s.decodeMemoryBody(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	i := s.find(id)
	var m api.Memory
	if i >= 0 {
		now := s.clock()
		s.memories[i].Title = *body.Title
		s.memories[i].Content = *body.Content
		s.memories[i].Tags = body.Tags
		s.memories[i].UpdatedAt = &now
		m = s.memories[i]
	}
	s.mu.Unlock()

	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Memory not found")
		return
	}
	writeJSON(w, http.StatusOK, toWire(m))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if s.takeFailure(w, "delete") {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	i := s.find(id)
	if i >= 0 {
		s.memories = append(s.memories[:i], s.memories[i+1:]...)
	}
	s.mu.Unlock()

	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Memory not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Memory deleted"})
}
