// Package view renders session state as terminal text.
package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	// DefaultWidth is used when the terminal width is unknown
	DefaultWidth = 80

	// ListClip and SearchClip are the content preview lengths, in runes
	ListClip   = 150
	SearchClip = 200
)

// Theme holds the styles used by a Renderer
type Theme struct {
	Heading lipgloss.Style
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Tag     lipgloss.Style
	Accent  lipgloss.Style
	Badge   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
}

// NewTheme returns the colored theme, or plain styles when color is false
func NewTheme(color bool) Theme {
	if !color {
		plain := lipgloss.NewStyle()
		return Theme{
			Heading: plain, Title: plain, Muted: plain, Tag: plain,
			Accent: plain, Badge: plain, Error: plain, Success: plain,
		}
	}
	return Theme{
		Heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Title:   lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Tag:     lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Accent:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Badge:   lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")).Padding(0, 1),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
}

// Renderer turns domain values into text blocks
type Renderer struct {
	theme    Theme
	width    int
	location *time.Location
}

// New creates a renderer for a terminal of the given width
func New(color bool, width int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Renderer{theme: NewTheme(color), width: width, location: time.Local}
}

// WithLocation sets the zone timestamps are shown in
func (r *Renderer) WithLocation(loc *time.Location) *Renderer {
	r.location = loc
	return r
}

// Theme returns the renderer's styles
func (r *Renderer) Theme() Theme {
	return r.theme
}

// Clip flattens text onto one line and cuts it to max runes, adding "..."
// when something was removed
func Clip(text string, max int) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

// Fit truncates s to width terminal cells and pads it to exactly that width
func Fit(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

// Wrap breaks text into lines no wider than width cells
func Wrap(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		if para == "" {
			lines = append(lines, "")
			continue
		}
		var b strings.Builder
		w := 0
		for _, c := range para {
			cw := runewidth.RuneWidth(c)
			if w+cw > width {
				lines = append(lines, b.String())
				b.Reset()
				w = 0
			}
			b.WriteRune(c)
			w += cw
		}
		lines = append(lines, b.String())
	}
	return lines
}

// FormatRelevance shows a [0,1] score as a percentage with one decimal
func FormatRelevance(rel float64) string {
	return fmt.Sprintf("%.1f%%", rel*100)
}

func (r *Renderer) formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(r.location).Format("2006-01-02 15:04")
}

func (r *Renderer) tags(tags []string) string {
	if len(tags) == 0 {
		return r.theme.Muted.Render("no tags")
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = r.theme.Tag.Render("#" + t)
	}
	return strings.Join(parts, " ")
}

func (r *Renderer) rule() string {
	return r.theme.Muted.Render(strings.Repeat("─", r.width))
}
