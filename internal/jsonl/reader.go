// Package jsonl reads raw quote records from line-delimited JSON (or JSON
// array batches) and writes the assembled corpus back out atomically.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
	"github.com/cognicore/quotekit/pkg/quotekit/quote"
)

// maxLine bounds a single JSONL record.
const maxLine = 4 << 20

// File is the decoded content of one input file.
type File struct {
	Path    string
	Records []quote.Raw
	// Skipped counts lines that were not valid JSON objects.
	Skipped int
}

// Reader loads raw quote files.
type Reader struct {
	// Workers bounds concurrent file loads. Zero means one per file.
	Workers int
	// KeepMarkup disables HTML stripping of text fields.
	KeepMarkup bool
	Logger     *slog.Logger
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Expand resolves glob patterns (with ** support) to a sorted, de-duplicated
// list of regular files. A pattern that matches nothing is an error, since
// an input that silently disappears would produce an empty corpus.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: no input matches %q", internalerr.ErrNotFound, pattern)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			if abs, err := filepath.Abs(m); err == nil {
				m = abs
			}
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// ReadAll expands patterns and loads every file concurrently. Results keep
// the sorted path order so a run over the same inputs is deterministic.
func (r *Reader) ReadAll(ctx context.Context, patterns []string) ([]File, error) {
	paths, err := Expand(patterns)
	if err != nil {
		return nil, err
	}

	files := make([]File, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if r.Workers > 0 {
		g.SetLimit(r.Workers)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := r.ReadFile(path)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// ReadFile loads one file. Lines that are not valid JSON objects are
// logged and skipped; only an unreadable file is an error.
func (r *Reader) ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read file %s: %w", path, err)
	}

	f := File{Path: path}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = r.decodeArray(&f, trimmed)
	} else {
		err = r.decodeLines(&f, data)
	}
	if err != nil {
		return File{}, err
	}

	if f.Skipped > 0 {
		r.logger().Warn("skipped malformed lines", "file", path, "skipped", f.Skipped, "records", len(f.Records))
	}
	return f, nil
}

func (r *Reader) decodeLines(f *File, data []byte) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var raw quote.Raw
		if err := json.Unmarshal(text, &raw); err != nil {
			r.logger().Debug("skipping malformed JSON", "file", f.Path, "line", line, "error", err)
			f.Skipped++
			continue
		}
		r.add(f, raw, line)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read file %s: %w", f.Path, err)
	}
	return nil
}

// decodeArray handles a batch file holding one JSON array. Line is the
// 1-based element index.
func (r *Reader) decodeArray(f *File, data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read file %s: %w", f.Path, err)
	}

	idx := 0
	for dec.More() {
		idx++
		var msg json.RawMessage
		if err := dec.Decode(&msg); err != nil {
			// The array itself is broken; keep what decoded so far.
			r.logger().Warn("truncated JSON array", "file", f.Path, "element", idx, "error", err)
			f.Skipped++
			return nil
		}
		var raw quote.Raw
		if err := json.Unmarshal(msg, &raw); err != nil {
			f.Skipped++
			continue
		}
		r.add(f, raw, idx)
	}
	return nil
}

func (r *Reader) add(f *File, raw quote.Raw, line int) {
	if !r.KeepMarkup {
		raw.Quote = StripMarkup(raw.Quote)
		raw.Author = StripMarkup(raw.Author)
		raw.Source = StripMarkup(raw.Source)
		raw.Meaning = StripMarkup(raw.Meaning)
	}
	raw.Origin = f.Path
	raw.Line = line
	f.Records = append(f.Records, raw)
}

// StripMarkup removes HTML tags and decodes entities from scraped text.
// Text without markup is returned unchanged.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.ElementNode:
			// Line breaks and paragraphs separate words.
			if n.Data == "br" || n.Data == "p" {
				buf.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.Join(strings.Fields(buf.String()), " ")
}

// Flatten concatenates the records of files in order.
func Flatten(files []File) (records []quote.Raw, skipped int) {
	for _, f := range files {
		records = append(records, f.Records...)
		skipped += f.Skipped
	}
	return records, skipped
}

// Partitions returns one record slice per file.
func Partitions(files []File) [][]quote.Raw {
	parts := make([][]quote.Raw, 0, len(files))
	for _, f := range files {
		parts = append(parts, f.Records)
	}
	return parts
}

// ReadCorpus loads a previously emitted corpus. A missing file is an empty
// corpus. Unlike raw input, a corrupt corpus line is an error: silently
// dropping prior records would renumber IDs downstream.
func ReadCorpus(path string) ([]quote.Record, error) {
	fh, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	defer fh.Close()

	return DecodeCorpus(fh, path)
}

// DecodeCorpus reads one QuoteRecord per line from rd. name is used in
// error messages only.
func DecodeCorpus(rd io.Reader, name string) ([]quote.Record, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var records []quote.Record
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec quote.Record
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("%w: corpus %s line %d: %v", internalerr.ErrInvalidInput, name, line, err)
		}
		if rec.Topics == nil {
			rec.Topics = []string{}
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", name, err)
	}
	return records, nil
}
