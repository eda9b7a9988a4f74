package view

import (
	"fmt"
	"strings"

	"github.com/hession/memhub/internal/api"
	"github.com/hession/memhub/internal/suggest"
)

// MemoryList renders the collection as numbered cards
func (r *Renderer) MemoryList(memories []api.Memory) string {
	var b strings.Builder
	b.WriteString(r.theme.Heading.Render(fmt.Sprintf("All memories (%d)", len(memories))))
	b.WriteString("\n")

	if len(memories) == 0 {
		b.WriteString(r.theme.Muted.Render("No memories yet. Use /new or pick a suggestion with /use <n>."))
		b.WriteString("\n")
		return b.String()
	}

	for i, m := range memories {
		b.WriteString("\n")
		r.card(&b, i+1, m, ListClip)
	}
	return b.String()
}

// SearchResults renders the result page for query. Nothing is shown when
// there is no query.
func (r *Renderer) SearchResults(query, modeLabel string, results []api.Memory) string {
	if query == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(r.theme.Heading.Render(fmt.Sprintf("Search results for %q (%d)", query, len(results))))
	b.WriteString(" ")
	b.WriteString(r.theme.Badge.Render(modeLabel))
	b.WriteString("\n")

	if len(results) == 0 {
		b.WriteString(r.theme.Muted.Render("No matching memories."))
		b.WriteString("\n")
		return b.String()
	}

	for i, m := range results {
		b.WriteString("\n")
		r.card(&b, i+1, m, SearchClip)
	}
	return b.String()
}

func (r *Renderer) card(b *strings.Builder, n int, m api.Memory, clip int) {
	head := fmt.Sprintf("%2d. %s", n, r.theme.Title.Render(m.Title))
	b.WriteString(head)
	b.WriteString(r.theme.Muted.Render(fmt.Sprintf("  #%d", m.ID)))
	if m.Relevance != nil {
		b.WriteString("  ")
		b.WriteString(r.theme.Accent.Render(FormatRelevance(*m.Relevance)))
	}
	b.WriteString("\n")

	for _, line := range Wrap(Clip(m.Content, clip), r.width-4) {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("    ")
	b.WriteString(r.tags(m.Tags))
	b.WriteString("  ")
	b.WriteString(r.theme.Muted.Render(r.formatTime(m.CreatedAt)))
	b.WriteString("\n")
}

// Detail renders one memory in full
func (r *Renderer) Detail(m api.Memory) string {
	var b strings.Builder
	b.WriteString(r.rule())
	b.WriteString("\n")
	b.WriteString(r.theme.Heading.Render(m.Title))
	b.WriteString(r.theme.Muted.Render(fmt.Sprintf("  #%d", m.ID)))
	b.WriteString("\n\n")

	for _, line := range Wrap(m.Content, r.width) {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(r.tags(m.Tags))
	b.WriteString("\n")
	b.WriteString(r.theme.Muted.Render("created " + r.formatTime(m.CreatedAt)))
	if m.UpdatedAt != nil {
		b.WriteString(r.theme.Muted.Render("  updated " + r.formatTime(*m.UpdatedAt)))
	}
	b.WriteString("\n")
	b.WriteString(r.theme.Muted.Render("/edit to change, /delete to remove, /close to go back"))
	b.WriteString("\n")
	b.WriteString(r.rule())
	b.WriteString("\n")
	return b.String()
}

// StatsHeader shows the record counts of both backend stores
func (r *Renderer) StatsHeader(s api.Stats) string {
	return r.theme.Muted.Render(fmt.Sprintf("SQLite: %d records   Vector store: %d records", s.SQLiteCount, s.ChromaCount))
}

// Suggestions renders the quick-create list
func (r *Renderer) Suggestions(list []suggest.Suggestion) string {
	if len(list) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(r.theme.Heading.Render("Quick create suggestions"))
	b.WriteString(r.theme.Muted.Render("  (/use <n> to save one)"))
	b.WriteString("\n")

	titleWidth := r.width / 2
	for i, s := range list {
		b.WriteString(fmt.Sprintf("  %d. ", i+1))
		b.WriteString(Fit(s.Title, titleWidth))
		b.WriteString(" ")
		b.WriteString(r.tags(s.Tags))
		b.WriteString("\n")
	}
	return b.String()
}

// Banner renders the dismissable error message
func (r *Renderer) Banner(msg string) string {
	if msg == "" {
		return ""
	}
	return r.theme.Error.Render("✗ "+msg) + r.theme.Muted.Render("  (/dismiss to close)")
}

// Success renders a confirmation line
func (r *Renderer) Success(msg string) string {
	return r.theme.Success.Render("✓ " + msg)
}

// Muted renders secondary text
func (r *Renderer) Muted(msg string) string {
	return r.theme.Muted.Render(msg)
}
