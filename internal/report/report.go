// Package report defines the ranked word report produced by a run, its
// text and JSON renderings, and the Sink interface optional backends
// implement to receive finished reports.
package report

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Source describes one input file as it was when the run validated it.
type Source struct {
	Index   int       `json:"index"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// RankedWord is one line of the report.
type RankedWord struct {
	Rank  int    `json:"rank"`
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Params are the settings that change a report's content.
type Params struct {
	TopN      int `json:"top_n"`
	MinLength int `json:"min_length"`
	MaxLength int `json:"max_length"`
}

// Report is the result of one run.
type Report struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Params      Params        `json:"params"`
	Sources     []Source      `json:"sources"`
	Tracked     int           `json:"tracked"`
	Eligible    int           `json:"eligible"`
	Words       []RankedWord  `json:"words"`
	Duration    time.Duration `json:"duration_ns"`
	Cached      bool          `json:"cached,omitempty"`
}

// Sink receives finished reports.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, r *Report) error
}

// Write renders r to w in the given format.
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatText, "":
		return WriteText(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteText prints one word per line in rank order.
func WriteText(w io.Writer, r *Report) error {
	for _, word := range r.Words {
		if _, err := fmt.Fprintln(w, word.Word); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	return nil
}

func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// Fingerprint identifies the inputs of a run: every source's path, size and
// modification time, in order, plus the params. File content is not hashed,
// so a same-size rewrite within one mtime tick keeps the old fingerprint.
func Fingerprint(sources []Source, params Params) string {
	h := sha256.New()
	fmt.Fprintf(h, "top=%d;min=%d;max=%d\n", params.TopN, params.MinLength, params.MaxLength)
	for _, s := range sources {
		fmt.Fprintf(h, "%d\x00%s\x00%d\x00%d\n", s.Index, s.Path, s.Size, s.ModTime.UnixNano())
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:16])
}
