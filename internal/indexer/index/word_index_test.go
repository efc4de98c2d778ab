package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/indexer/tokenizer"
)

// fill inserts every accepted token of each text, treating texts[i] as
// file i+1.
func fill(t *testing.T, texts ...string) *WordIndex {
	t.Helper()
	idx := NewWordIndex()
	for i, text := range texts {
		for _, word := range tokenizer.Tokenize(text, tokenizer.DefaultOptions()) {
			idx.Insert(word, i+1)
		}
	}
	return idx
}

func words(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Word)
	}
	return out
}

func TestTwoFileExample(t *testing.T) {
	idx := fill(t, "banana banana apple", "banana orange")

	e, ok := idx.Get("banana")
	require.True(t, ok)
	assert.Equal(t, 3, e.Count)
	assert.Equal(t, 2, e.LastSeenFile)
	assert.True(t, e.EligibleFor(2))

	_, ok = idx.Get("orange")
	assert.False(t, ok, "words first seen after file 1 are never tracked")
	_, ok = idx.Get("apple")
	assert.False(t, ok, "five-letter words are not tokens")

	assert.Equal(t, []string{"banana"}, words(idx.TopN(2, 20)))
}

func TestInsertStreakRule(t *testing.T) {
	idx := NewWordIndex()

	assert.True(t, idx.Insert("streak", 1))
	assert.True(t, idx.Insert("broken", 1))
	assert.True(t, idx.Insert("streak", 1))
	assert.False(t, idx.Insert("latecomer", 2))

	assert.True(t, idx.Insert("streak", 2))
	// "broken" is missing from file 2, so file 3 cannot revive it.
	assert.True(t, idx.Insert("streak", 3))
	assert.False(t, idx.Insert("broken", 3))

	streak, _ := idx.Get("streak")
	assert.Equal(t, Entry{Word: "streak", Count: 4, LastSeenFile: 3}, withoutSeq(streak))
	broken, _ := idx.Get("broken")
	assert.Equal(t, Entry{Word: "broken", Count: 1, LastSeenFile: 1}, withoutSeq(broken))

	assert.Equal(t, 2, idx.Len())
	assert.EqualValues(t, 5, idx.Credited())
	assert.EqualValues(t, 2, idx.Dropped())
	assert.Equal(t, 1, idx.Eligible(3))
}

func TestInsertRejectsNonPositiveFileIndex(t *testing.T) {
	idx := NewWordIndex()
	assert.False(t, idx.Insert("nothing", 0))
	assert.False(t, idx.Insert("nothing", -1))
	assert.Equal(t, 0, idx.Len())
}

func TestMissingMiddleFileExcludes(t *testing.T) {
	idx := fill(t,
		"popular popular popular common",
		"common",
		"popular popular common",
	)
	assert.Equal(t, []string{"common"}, words(idx.TopN(3, 10)))

	popular, _ := idx.Get("popular")
	assert.Equal(t, 3, popular.Count, "count freezes once the streak breaks")
}

func TestCaseInsensitiveAcrossFiles(t *testing.T) {
	idx := fill(t, "Banana", "BANANA banana")
	e, ok := idx.Get("banana")
	require.True(t, ok)
	assert.Equal(t, 3, e.Count)
	assert.True(t, e.EligibleFor(2))
}

func TestSortedInsertStaysShallow(t *testing.T) {
	// Sorted input degrades an unbalanced tree to a list; the B-tree
	// must absorb it without trouble.
	idx := NewWordIndex()
	for i := 0; i < 50000; i++ {
		idx.Insert(fmt.Sprintf("word%08d", i), 1)
	}
	assert.Equal(t, 50000, idx.Len())
	_, ok := idx.Get("word00049999")
	assert.True(t, ok)
}

func withoutSeq(e Entry) Entry {
	e.seq = 0
	return e
}
