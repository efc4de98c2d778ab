package index

import (
	"github.com/google/btree"
)

const treeDegree = 32

// WordIndex folds words from an ordered sequence of files into per-word
// counters. A word is tracked only if it occurs in file 1, and keeps
// counting only while every following file contains it too.
//
// WordIndex is not safe for concurrent use.
type WordIndex struct {
	tree     *btree.BTreeG[*Entry]
	nextSeq  uint64
	credited int64
	dropped  int64
}

func NewWordIndex() *WordIndex {
	return &WordIndex{
		tree: btree.NewG[*Entry](treeDegree, wordLess),
	}
}

// Insert records one occurrence of word seen while scanning file number
// fileIndex (1-based, non-decreasing across calls). It reports whether the
// occurrence was credited.
func (w *WordIndex) Insert(word string, fileIndex int) bool {
	if fileIndex < 1 {
		w.dropped++
		return false
	}
	e, ok := w.tree.Get(&Entry{Word: word})
	if !ok {
		if fileIndex != 1 {
			w.dropped++
			return false
		}
		w.tree.ReplaceOrInsert(&Entry{
			Word:         word,
			Count:        1,
			LastSeenFile: fileIndex,
			seq:          w.nextSeq,
		})
		w.nextSeq++
		w.credited++
		return true
	}
	if e.LastSeenFile < fileIndex-1 {
		w.dropped++
		return false
	}
	e.Count++
	e.LastSeenFile = fileIndex
	w.credited++
	return true
}

// Get returns a copy of the entry for word.
func (w *WordIndex) Get(word string) (Entry, bool) {
	e, ok := w.tree.Get(&Entry{Word: word})
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of tracked words.
func (w *WordIndex) Len() int {
	return w.tree.Len()
}

// Credited returns how many Insert calls were counted.
func (w *WordIndex) Credited() int64 {
	return w.credited
}

// Dropped returns how many Insert calls were ignored.
func (w *WordIndex) Dropped() int64 {
	return w.dropped
}

// Eligible returns how many words were credited in every file from 1
// through fileCount.
func (w *WordIndex) Eligible(fileCount int) int {
	n := 0
	w.tree.Ascend(func(e *Entry) bool {
		if e.EligibleFor(fileCount) {
			n++
		}
		return true
	})
	return n
}
