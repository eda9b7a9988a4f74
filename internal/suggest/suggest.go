// Package suggest produces example notes offered for one-step creation.
package suggest

import (
	"math/rand"
	"time"

	"github.com/hession/memhub/internal/api"
)

// Suggestion is a candidate memory that has not been stored
type Suggestion struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// Input converts the suggestion into a create request body
func (s Suggestion) Input() api.MemoryInput {
	return api.MemoryInput{
		Title:   s.Title,
		Content: s.Content,
		Tags:    append([]string(nil), s.Tags...),
	}
}

// Mode selects how Generate builds its list
type Mode string

const (
	ModeCurated Mode = "curated"
	ModeRandom  Mode = "random"
)

// MaxRandomTags is the upper bound of tags on a random suggestion
const MaxRandomTags = 3

// Curated returns the fixed curated set: sorting algorithms first, then design patterns
func Curated() []Suggestion {
	out := make([]Suggestion, 0, len(sortingAlgorithms)+len(designPatterns))
	for _, s := range sortingAlgorithms {
		out = append(out, clone(s))
	}
	for _, s := range designPatterns {
		out = append(out, clone(s))
	}
	return out
}

func clone(s Suggestion) Suggestion {
	s.Tags = append([]string(nil), s.Tags...)
	return s
}

// Generator draws random suggestions from an injected source
type Generator struct {
	rng *rand.Rand
}

// New creates a generator using rng. A nil rng is seeded from the clock.
func New(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// NewSeeded creates a generator with a fixed seed; seed 0 means clock-seeded
func NewSeeded(seed int64) *Generator {
	if seed == 0 {
		return New(nil)
	}
	return New(rand.New(rand.NewSource(seed)))
}

// Generate returns the curated set, or n random suggestions in ModeRandom
func (g *Generator) Generate(mode Mode, n int) []Suggestion {
	if mode == ModeRandom {
		return g.Random(n)
	}
	return Curated()
}

// Random assembles n suggestions. Title and content are drawn uniformly from
// their pools, and each gets 1 to MaxRandomTags distinct tags.
func (g *Generator) Random(n int) []Suggestion {
	if n <= 0 {
		return []Suggestion{}
	}

	out := make([]Suggestion, n)
	for i := range out {
		out[i] = Suggestion{
			Title:   titlePool[g.rng.Intn(len(titlePool))],
			Content: contentPool[g.rng.Intn(len(contentPool))],
			Tags:    g.pickTags(1 + g.rng.Intn(MaxRandomTags)),
		}
	}
	return out
}

// One returns a single curated suggestion chosen at random
func (g *Generator) One() Suggestion {
	all := Curated()
	return all[g.rng.Intn(len(all))]
}

// pickTags draws k tags without replacement using a partial Fisher-Yates shuffle
func (g *Generator) pickTags(k int) []string {
	pool := append([]string(nil), tagPool...)
	if k > len(pool) {
		k = len(pool)
	}
	for i := 0; i < k; i++ {
		j := i + g.rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k:k]
}
