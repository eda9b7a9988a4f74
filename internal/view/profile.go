package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/hession/memhub/internal/api"
	"github.com/hession/memhub/internal/app"
)

const (
	// TopTags is how many tags the share table and bar chart show
	TopTags = 10
	// CloudSizes is the number of word cloud size steps
	CloudSizes = 5

	barWidth = 30
)

// CloudWord is a tag placed in the word cloud
type CloudWord struct {
	Name  string
	Value int
	// Size is 1 (rarest) to CloudSizes (most used)
	Size int
}

// CloudWords scales tag counts linearly into size steps
func CloudWords(stats []app.TagStat) []CloudWord {
	if len(stats) == 0 {
		return nil
	}

	lo, hi := stats[0].Value, stats[0].Value
	for _, s := range stats {
		if s.Value < lo {
			lo = s.Value
		}
		if s.Value > hi {
			hi = s.Value
		}
	}

	words := make([]CloudWord, len(stats))
	for i, s := range stats {
		size := CloudSizes
		if hi > lo {
			size = 1 + (s.Value-lo)*(CloudSizes-1)/(hi-lo)
		}
		words[i] = CloudWord{Name: s.Name, Value: s.Value, Size: size}
	}
	return words
}

// TagShare is one slice of the tag distribution
type TagShare struct {
	Name    string
	Value   int
	Percent float64
}

// Shares computes each tag's fraction of the summed counts
func Shares(stats []app.TagStat) []TagShare {
	total := 0
	for _, s := range stats {
		total += s.Value
	}

	out := make([]TagShare, len(stats))
	for i, s := range stats {
		out[i] = TagShare{Name: s.Name, Value: s.Value}
		if total > 0 {
			out[i].Percent = float64(s.Value) * 100 / float64(total)
		}
	}
	return out
}

// Profile renders the tag profile page
func (r *Renderer) Profile(stats api.Stats, tags []app.TagStat, loading bool) string {
	if len(tags) == 0 {
		if loading {
			return r.theme.Muted.Render("Building your profile...") + "\n"
		}
		return r.theme.Heading.Render("No tag data yet") + "\n" +
			r.theme.Muted.Render("Create some tagged memories to build your profile. /list to go back.") + "\n"
	}

	top := tags
	if len(top) > TopTags {
		top = top[:TopTags]
	}

	sections := []string{
		r.profileSummary(stats, tags),
		r.section("Tag cloud", "bigger tags are the topics you write about most", r.WordCloud(tags)),
		r.section("Tag distribution", "", r.ShareTable(top)),
		r.section(fmt.Sprintf("Top %d tags", TopTags), "", r.BarChart(top)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (r *Renderer) profileSummary(stats api.Stats, tags []app.TagStat) string {
	total := r.theme.Title.Render(fmt.Sprintf("%d", stats.SQLiteCount))
	distinct := r.theme.Title.Render(fmt.Sprintf("%d", len(tags)))
	return fmt.Sprintf("%s memories   %s distinct tags\n", total, distinct)
}

func (r *Renderer) section(title, desc, body string) string {
	var b strings.Builder
	b.WriteString(r.theme.Heading.Render(title))
	if desc != "" {
		b.WriteString(r.theme.Muted.Render("  " + desc))
	}
	b.WriteString("\n")
	b.WriteString(body)
	return b.String()
}

// WordCloud lays the tags out in lines, styled by size step
func (r *Renderer) WordCloud(stats []app.TagStat) string {
	var (
		b    strings.Builder
		line int
	)
	for _, w := range CloudWords(stats) {
		word := r.cloudStyle(w.Size).Render(w.Name)
		wWidth := runewidth.StringWidth(w.Name)
		if line > 0 && line+1+wWidth > r.width {
			b.WriteString("\n")
			line = 0
		}
		if line > 0 {
			b.WriteString(" ")
			line++
		}
		b.WriteString(word)
		line += wWidth
	}
	b.WriteString("\n")
	return b.String()
}

func (r *Renderer) cloudStyle(size int) lipgloss.Style {
	switch {
	case size >= 5:
		return r.theme.Accent.Bold(true).Underline(true)
	case size == 4:
		return r.theme.Accent.Bold(true)
	case size == 3:
		return r.theme.Title
	case size == 2:
		return r.theme.Tag
	default:
		return r.theme.Muted
	}
}

func (r *Renderer) labelWidth(names []string) int {
	w := 4
	for _, n := range names {
		if nw := runewidth.StringWidth(n); nw > w {
			w = nw
		}
	}
	if limit := r.width / 3; w > limit {
		w = limit
	}
	return w
}

// ShareTable renders each tag's share of the total, like a pie chart legend
func (r *Renderer) ShareTable(stats []app.TagStat) string {
	shares := Shares(stats)
	names := make([]string, len(shares))
	for i, s := range shares {
		names[i] = s.Name
	}
	lw := r.labelWidth(names)

	var b strings.Builder
	for _, s := range shares {
		filled := int(s.Percent/100*barWidth + 0.5)
		b.WriteString("  ")
		b.WriteString(Fit(s.Name, lw))
		b.WriteString(fmt.Sprintf(" %5.1f%% ", s.Percent))
		b.WriteString(r.theme.Tag.Render(strings.Repeat("▰", filled)))
		b.WriteString(r.theme.Muted.Render(strings.Repeat("▱", barWidth-filled)))
		b.WriteString("\n")
	}
	return b.String()
}

// BarChart renders tag counts as horizontal bars scaled to the largest count
func (r *Renderer) BarChart(stats []app.TagStat) string {
	if len(stats) == 0 {
		return ""
	}

	names := make([]string, len(stats))
	hi := 0
	for i, s := range stats {
		names[i] = s.Name
		if s.Value > hi {
			hi = s.Value
		}
	}
	lw := r.labelWidth(names)

	var b strings.Builder
	for _, s := range stats {
		n := 0
		if hi > 0 {
			n = s.Value * barWidth / hi
		}
		if n == 0 && s.Value > 0 {
			n = 1
		}
		b.WriteString("  ")
		b.WriteString(Fit(s.Name, lw))
		b.WriteString(" ")
		b.WriteString(r.theme.Accent.Render(strings.Repeat("█", n)))
		b.WriteString(fmt.Sprintf(" %d", s.Value))
		b.WriteString("\n")
	}
	return b.String()
}
