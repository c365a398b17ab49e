// Package assemble turns a stream of raw quote records into a clean corpus.
//
// Each record walks a fixed sequence of stages (field filter, exact and
// fuzzy duplicate checks, classification, scoring) and is dropped at the
// first stage it fails. Survivors get a stable ID and are emitted in
// acceptance order. A prior corpus, if given, is carried through
// unchanged so re-runs keep existing IDs and fields.
package assemble

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/quotekit/pkg/quotekit/dedup"
	"github.com/cognicore/quotekit/pkg/quotekit/fieldfilter"
	"github.com/cognicore/quotekit/pkg/quotekit/quality"
	"github.com/cognicore/quotekit/pkg/quotekit/quote"
	"github.com/cognicore/quotekit/pkg/quotekit/taxonomy"
)

// DefaultQualityThreshold is the minimum score a new record needs.
const DefaultQualityThreshold = 0.4

// Sink receives emitted records in corpus order. An error from Emit is
// fatal to the run.
type Sink interface {
	Emit(quote.Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(quote.Record) error

// Emit calls f(r).
func (f SinkFunc) Emit(r quote.Record) error { return f(r) }

// Collect is a Sink that keeps every record in memory.
type Collect struct {
	Records []quote.Record
}

// Emit appends r.
func (c *Collect) Emit(r quote.Record) error {
	c.Records = append(c.Records, r)
	return nil
}

// Observer is told about every record outcome. Calls come from the
// goroutine that called Run.
type Observer interface {
	Carried(quote.Record)
	Accepted(quote.Record)
	Rejected(*Rejection)
	Defaulted(taxonomy.Classification)
}

// Options configure an Assembler. Nil components fall back to the built-in
// tables.
type Options struct {
	Filter     *fieldfilter.Filter
	Classifier *taxonomy.Classifier
	Scorer     *quality.Scorer

	FuzzyThreshold float64
	WindowSize     int

	// QualityThreshold is the minimum admission score. Zero or an
	// out-of-range value means DefaultQualityThreshold.
	QualityThreshold float64
	// DisableQualityThreshold admits records whatever their score.
	DisableQualityThreshold bool

	// RequireField rejects records that carry no category field at all.
	// Otherwise the field filter only judges records that have one.
	RequireField bool
	// Workers bounds RunPartitioned concurrency.
	Workers int

	Logger   *slog.Logger
	Observer Observer
	Now      func() time.Time
}

// Assembler runs the pipeline. One Assembler may run many times, but not
// concurrently.
type Assembler struct {
	filter     *fieldfilter.Filter
	classifier *taxonomy.Classifier
	scorer     *quality.Scorer
	opts       Options
	logger     *slog.Logger
	entropy    *ulid.MonotonicEntropy
	state      atomic.Int32
}

// New creates an Assembler.
func New(opts Options) *Assembler {
	if opts.Classifier == nil {
		opts.Classifier = taxonomy.Default()
	}
	if opts.Filter == nil {
		opts.Filter = fieldfilter.Default()
	}
	if opts.Scorer == nil {
		opts.Scorer = quality.New(opts.Classifier)
	}
	switch {
	case opts.DisableQualityThreshold:
		opts.QualityThreshold = 0
	case opts.QualityThreshold <= 0 || opts.QualityThreshold > 1:
		opts.QualityThreshold = DefaultQualityThreshold
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		filter:     opts.Filter,
		classifier: opts.Classifier,
		scorer:     opts.Scorer,
		opts:       opts,
		logger:     logger.With("component", "assembler"),
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// State returns the step the assembler is currently in. Safe to call from
// any goroutine.
func (a *Assembler) State() State { return State(a.state.Load()) }

func (a *Assembler) setState(s State) { a.state.Store(int32(s)) }

// staged is a record that passed screening and waits for admission.
type staged struct {
	raw   quote.Raw
	cand  quote.Candidate
	cls   taxonomy.Classification
	score float64
}

// run is the per-run state: dedup context, ID generator and counters.
type run struct {
	dc    *dedup.Context
	ids   *quote.IDGenerator
	stats *Stats
	sink  Sink
}

// Run assembles a corpus from prior followed by raws. Prior records are
// emitted first and unchanged. Per-record failures are counted in the
// returned Stats; only a sink error or ctx cancellation aborts the run,
// and both leave every already emitted record whole.
func (a *Assembler) Run(ctx context.Context, prior []quote.Record, raws []quote.Raw, sink Sink) (*Stats, error) {
	r, err := a.begin(prior, sink)
	if err != nil {
		return a.abort(r, err)
	}
	r.stats.Input = len(raws)

	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return a.abort(r, err)
		}
		s, rej := a.screen(r.dc, raw)
		if rej != nil {
			a.rejected(r, rej)
			continue
		}
		if err := a.admit(r, s); err != nil {
			return a.abort(r, err)
		}
	}

	a.finish(r)
	return r.stats, nil
}

// begin sets up a run and carries the prior corpus into it.
func (a *Assembler) begin(prior []quote.Record, sink Sink) (*run, error) {
	a.setState(StateLoading)
	now := a.opts.Now()
	r := &run{
		dc: dedup.New(dedup.Options{
			Threshold:  a.opts.FuzzyThreshold,
			WindowSize: a.opts.WindowSize,
		}),
		ids:   quote.NewIDGenerator(),
		stats: newStats(ulid.MustNew(ulid.Timestamp(now), a.entropy).String(), now),
		sink:  sink,
	}

	for _, rec := range prior {
		c := rec.Candidate()
		if r.dc.IsExactDuplicate(c) {
			a.rejected(r, &Rejection{
				Reason: ReasonExactDuplicate, State: StateLoading,
				Author: rec.Author, Origin: "prior", Detail: rec.ID,
				Err: sentinel(ReasonExactDuplicate),
			})
			continue
		}
		if rec.ID == "" || r.ids.Taken(rec.ID) {
			a.rejected(r, &Rejection{
				Reason: ReasonMalformed, State: StateLoading,
				Author: rec.Author, Origin: "prior", Detail: fmt.Sprintf("duplicate or empty id %q", rec.ID),
				Err: sentinel(ReasonMalformed),
			})
			continue
		}
		r.ids.Reserve(rec.ID)
		r.dc.Register(c)
		if err := sink.Emit(rec); err != nil {
			return r, fmt.Errorf("emit %s: %w", rec.ID, err)
		}
		r.stats.Carried++
		r.stats.count(rec)
		if a.opts.Observer != nil {
			a.opts.Observer.Carried(rec)
		}
	}
	a.logger.Debug("prior corpus loaded", "run_id", r.stats.RunID, "carried", r.stats.Carried)
	return r, nil
}

// screen walks one raw record from Filtering through Scoring. It checks
// dc but never registers anything in it.
func (a *Assembler) screen(dc *dedup.Context, raw quote.Raw) (staged, *Rejection) {
	return a.screenStages(dc, raw, a.setState)
}

func (a *Assembler) screenStages(dc *dedup.Context, raw quote.Raw, enter func(State)) (staged, *Rejection) {
	s := staged{raw: raw}
	for state := StateFiltering; state != StateEmitting; state = state.next() {
		enter(state)
		switch state {
		case StateFiltering:
			c, err := quote.NewCandidate(raw)
			if err != nil {
				return s, reject(ReasonMalformed, state, s, err.Error())
			}
			s.cand = c
			field := raw.CategoryField()
			if field == "" && !a.opts.RequireField {
				continue
			}
			if d := a.filter.Decide(field); !d.Admit {
				return s, reject(ReasonFieldFiltered, state, s, fmt.Sprintf("%s %q", d.Reason, field))
			}

		case StateDeduplicating:
			if dc.IsExactDuplicate(s.cand) {
				return s, reject(ReasonExactDuplicate, state, s, s.cand.TextHash[:12])
			}
			if dup, ratio := dc.IsFuzzyDuplicate(s.cand); dup {
				return s, reject(ReasonFuzzyDuplicate, state, s, fmt.Sprintf("ratio %.3f", ratio))
			}

		case StateClassifying:
			s.cls = a.classifier.ClassifyInput(taxonomy.Input{
				Author:        s.cand.Author,
				Field:         raw.CategoryField(),
				Text:          s.cand.Text,
				Meaning:       raw.Meaning,
				EraHint:       raw.Era,
				TraditionHint: raw.Tradition,
				TopicHints:    raw.Topics,
			})

		case StateScoring:
			s.score = round(a.scorer.ScoreCandidate(s.cand, s.cls).Score)
			if s.score < a.opts.QualityThreshold {
				return s, reject(ReasonLowQuality, state, s, fmt.Sprintf("score %.3f", s.score))
			}
		}
	}
	return s, nil
}

// admit gives a screened record its ID, registers it and emits it.
func (a *Assembler) admit(r *run, s staged) error {
	a.setState(StateEmitting)
	rec := s.cand.Build(r.ids.Next(s.cand.Author), s.cls, s.score)
	if err := r.sink.Emit(rec); err != nil {
		return fmt.Errorf("emit %s: %w", rec.ID, err)
	}
	r.dc.Register(s.cand)
	r.stats.Accepted++
	r.stats.count(rec)
	if s.cls.Defaulted() {
		r.stats.ClassificationDefaulted++
		if a.opts.Observer != nil {
			a.opts.Observer.Defaulted(s.cls)
		}
	}
	if a.opts.Observer != nil {
		a.opts.Observer.Accepted(rec)
	}
	return nil
}

func (a *Assembler) rejected(r *run, rej *Rejection) {
	r.stats.Rejected[rej.Reason]++
	a.logger.Debug("record rejected",
		"reason", rej.Reason,
		"stage", rej.State,
		"author", rej.Author,
		"origin", rej.Origin,
		"line", rej.Line,
		"detail", rej.Detail)
	if a.opts.Observer != nil {
		a.opts.Observer.Rejected(rej)
	}
}

func (a *Assembler) finish(r *run) {
	r.stats.finish(a.opts.Now())
	a.setState(StateDone)
	a.logger.Info("assembly finished",
		"run_id", r.stats.RunID,
		"input", r.stats.Input,
		"carried", r.stats.Carried,
		"accepted", r.stats.Accepted,
		"rejected", r.stats.TotalRejected(),
		"defaulted", r.stats.ClassificationDefaulted)
}

func (a *Assembler) abort(r *run, err error) (*Stats, error) {
	r.stats.finish(a.opts.Now())
	a.setState(StateDone)
	a.logger.Warn("assembly aborted", "run_id", r.stats.RunID, "error", err)
	return r.stats, err
}

func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
