package index

import (
	"slices"
)

// Ranking pulls eligible entries out of a WordIndex one at a time, highest
// count first. Reported words are remembered in the Ranking itself, so the
// index is never mutated and several Rankings can walk the same index.
type Ranking struct {
	idx      *WordIndex
	required int
	consumed map[string]struct{}
}

// NewRanking starts a ranking over words credited in every file from 1
// through required.
func (w *WordIndex) NewRanking(required int) *Ranking {
	return &Ranking{
		idx:      w,
		required: required,
		consumed: make(map[string]struct{}),
	}
}

// ExtractMax returns the unconsumed eligible entry with the largest count.
// Ties go to the word discovered first. It does not consume the entry.
func (r *Ranking) ExtractMax() (Entry, bool) {
	var best *Entry
	r.idx.tree.Ascend(func(e *Entry) bool {
		if !e.EligibleFor(r.required) {
			return true
		}
		if _, done := r.consumed[e.Word]; done {
			return true
		}
		if best == nil || rankLess(e, best) {
			best = e
		}
		return true
	})
	if best == nil {
		return Entry{}, false
	}
	return *best, true
}

// Consume excludes word from later ExtractMax calls.
func (r *Ranking) Consume(word string) {
	r.consumed[word] = struct{}{}
}

// Next extracts and consumes the next entry in rank order.
func (r *Ranking) Next() (Entry, bool) {
	e, ok := r.ExtractMax()
	if ok {
		r.Consume(e.Word)
	}
	return e, ok
}

// ExtractMax is the one-shot form of Ranking.ExtractMax.
func (w *WordIndex) ExtractMax(required int) (Entry, bool) {
	return w.NewRanking(required).ExtractMax()
}

// TopN returns the n highest-count words credited in every file from 1
// through required. Words tied with the n-th word's count are all included,
// so the result may be longer than n.
func (w *WordIndex) TopN(required, n int) []Entry {
	if n <= 0 {
		return []Entry{}
	}
	eligible := make([]*Entry, 0)
	w.tree.Ascend(func(e *Entry) bool {
		if e.EligibleFor(required) {
			eligible = append(eligible, e)
		}
		return true
	})
	slices.SortStableFunc(eligible, func(a, b *Entry) int {
		switch {
		case rankLess(a, b):
			return -1
		case rankLess(b, a):
			return 1
		default:
			return 0
		}
	})

	result := make([]Entry, 0, min(n, len(eligible)))
	for i, e := range eligible {
		if pastBoundary(i, n, result, e.Count) {
			break
		}
		result = append(result, *e)
	}
	return result
}

// TopNByExtraction builds the same report as TopN by repeated ExtractMax
// scans. It is O(n*size) and exists for callers that want the streaming
// form.
func (w *WordIndex) TopNByExtraction(required, n int) []Entry {
	result := make([]Entry, 0)
	if n <= 0 {
		return result
	}
	r := w.NewRanking(required)
	for i := 0; ; i++ {
		e, ok := r.ExtractMax()
		if !ok || pastBoundary(i, n, result, e.Count) {
			break
		}
		result = append(result, e)
		r.Consume(e.Word)
	}
	return result
}

// pastBoundary reports whether the candidate at position i (0-based) falls
// outside a top-n report whose emitted entries so far are emitted.
func pastBoundary(i, n int, emitted []Entry, count int) bool {
	if i < n {
		return false
	}
	return len(emitted) == 0 || emitted[len(emitted)-1].Count != count
}
