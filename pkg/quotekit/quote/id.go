package quote

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/quotekit/pkg/quotekit/normalize"
)

// IDGenerator hands out "<author-slug>_<nnn>" identifiers. Counters are kept
// per slug, and every issued or reserved ID is remembered so no two records
// in a corpus share one.
type IDGenerator struct {
	counters map[string]int
	used     map[string]struct{}
}

// NewIDGenerator returns an empty generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		counters: make(map[string]int),
		used:     make(map[string]struct{}),
	}
}

// Reserve marks an existing ID as taken and advances the slug counter past
// it, so a re-run never reissues an ID that a prior corpus already holds.
func (g *IDGenerator) Reserve(id string) {
	g.used[id] = struct{}{}
	slug, n, ok := splitID(id)
	if !ok {
		return
	}
	if n > g.counters[slug] {
		g.counters[slug] = n
	}
}

// Next issues the next free ID for author.
func (g *IDGenerator) Next(author string) string {
	slug := Slug(author)
	for {
		g.counters[slug]++
		id := fmt.Sprintf("%s_%03d", slug, g.counters[slug])
		if _, taken := g.used[id]; taken {
			continue
		}
		g.used[id] = struct{}{}
		return id
	}
}

// Taken reports whether id was already issued or reserved.
func (g *IDGenerator) Taken(id string) bool {
	_, ok := g.used[id]
	return ok
}

// Len reports how many IDs are taken.
func (g *IDGenerator) Len() int { return len(g.used) }

// Slug turns an author name into the ID prefix: folded words joined by
// underscores, "unknown" when nothing is left.
func Slug(author string) string {
	words := normalize.Words(author)
	if words == "" {
		return "unknown"
	}
	return strings.ReplaceAll(words, " ", "_")
}

func splitID(id string) (string, int, bool) {
	i := strings.LastIndexByte(id, '_')
	if i <= 0 || i == len(id)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return id[:i], n, true
}
