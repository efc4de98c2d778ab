package index

// Entry is one tracked word.
type Entry struct {
	Word string `json:"word"`
	// Count is the number of credited occurrences across the word's
	// unbroken streak of files starting at file 1.
	Count int `json:"count"`
	// LastSeenFile is the 1-based index of the last file that credited
	// the word.
	LastSeenFile int `json:"last_seen_file"`

	seq uint64
}

// EligibleFor reports whether the word was credited in every file from 1
// through fileCount.
func (e Entry) EligibleFor(fileCount int) bool {
	return fileCount > 0 && e.LastSeenFile == fileCount
}

func wordLess(a, b *Entry) bool {
	return a.Word < b.Word
}

// rankLess orders entries by descending count, then by discovery order.
func rankLess(a, b *Entry) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return a.seq < b.seq
}
