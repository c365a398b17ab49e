package assemble

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cognicore/quotekit/pkg/quotekit/quote"
	"github.com/cognicore/quotekit/pkg/quotekit/taxonomy"
)

// Stats is the end-of-run report. It is informational, not a stable API.
type Stats struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Input    int `json:"input"`
	Carried  int `json:"carried"`
	Accepted int `json:"accepted"`

	Rejected                map[Reason]int `json:"rejected"`
	ClassificationDefaulted int            `json:"classification_defaulted"`

	// Distribution over the whole emitted corpus, carried records included.
	ByEra       map[taxonomy.Era]int       `json:"by_era"`
	ByTradition map[taxonomy.Tradition]int `json:"by_tradition"`
	MeanQuality float64                    `json:"mean_quality"`

	Partitions int `json:"partitions,omitempty"`

	qualitySum float64
}

func newStats(runID string, now time.Time) *Stats {
	s := &Stats{
		RunID:       runID,
		StartedAt:   now,
		Rejected:    make(map[Reason]int, len(Reasons)),
		ByEra:       make(map[taxonomy.Era]int),
		ByTradition: make(map[taxonomy.Tradition]int),
	}
	for _, r := range Reasons {
		s.Rejected[r] = 0
	}
	return s
}

// Total returns the corpus size: carried plus accepted.
func (s *Stats) Total() int { return s.Carried + s.Accepted }

// TotalRejected sums rejections over all reasons.
func (s *Stats) TotalRejected() int {
	n := 0
	for _, v := range s.Rejected {
		n += v
	}
	return n
}

// AddUnreadable counts input lines that never decoded into a record. They
// are reported as malformed.
func (s *Stats) AddUnreadable(n int) {
	if n <= 0 {
		return
	}
	s.Input += n
	s.Rejected[ReasonMalformed] += n
}

func (s *Stats) count(r quote.Record) {
	s.ByEra[r.Era]++
	s.ByTradition[r.Tradition]++
	s.qualitySum += r.QualityScore
}

func (s *Stats) finish(now time.Time) {
	s.FinishedAt = now
	if n := s.Total(); n > 0 {
		s.MeanQuality = math.Round(s.qualitySum/float64(n)*1e4) / 1e4
	}
}

// WriteSummary renders a short human-readable report.
func (s *Stats) WriteSummary(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("run %s finished in %s\n", s.RunID, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	ew.printf("  read      %s records\n", humanize.Comma(int64(s.Input)))
	ew.printf("  carried   %s\n", humanize.Comma(int64(s.Carried)))
	ew.printf("  accepted  %s\n", humanize.Comma(int64(s.Accepted)))
	ew.printf("  corpus    %s records, mean quality %.3f\n", humanize.Comma(int64(s.Total())), s.MeanQuality)
	ew.printf("  rejected  %s\n", humanize.Comma(int64(s.TotalRejected())))
	for _, r := range Reasons {
		ew.printf("    %-16s %s\n", r, humanize.Comma(int64(s.Rejected[r])))
	}
	ew.printf("  classification defaulted %s\n", humanize.Comma(int64(s.ClassificationDefaulted)))
	ew.printf("  by era\n")
	for _, e := range taxonomy.Eras {
		if n := s.ByEra[e]; n > 0 {
			ew.printf("    %-16s %s (%s)\n", e, humanize.Comma(int64(n)), percent(n, s.Total()))
		}
	}
	ew.printf("  by tradition\n")
	for _, t := range taxonomy.Traditions {
		if n := s.ByTradition[t]; n > 0 {
			ew.printf("    %-16s %s (%s)\n", t, humanize.Comma(int64(n)), percent(n, s.Total()))
		}
	}
	return ew.err
}

func percent(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", 100*float64(n)/float64(total))
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
