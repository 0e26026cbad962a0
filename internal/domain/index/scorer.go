package index

import (
	"slices"
)

// Threshold is the minimum coverage a feature needs to be returned.
const Threshold = 0.25

// N-gram weights. Longer n-grams are rarer, so they count as stronger
// relevance signals.
const (
	monoWeight = 1
	biWeight   = 4
	triWeight  = 12
)

// ScoreEntry pairs a feature id with its accumulated coverage score.
type ScoreEntry struct {
	ID    uint16  `json:"id"`
	Score float64 `json:"score"`
}

// Scorer ranks features by weighted n-gram coverage of the query terms.
//
// It owns one ScoreEntry buffer sized to the corpus, reset on every call and
// never resized. A Scorer is not safe for concurrent use: the host must
// serialize queries against it. The index it reads is shared freely.
type Scorer struct {
	idx       *Index
	titleLens []int
	buf       []ScoreEntry
}

// NewScorer allocates the score buffer for a corpus whose titles have the
// given byte lengths (indexed by feature id).
func NewScorer(idx *Index, titleLens []int) *Scorer {
	return &Scorer{
		idx:       idx,
		titleLens: titleLens,
		buf:       make([]ScoreEntry, len(titleLens)),
	}
}

// MaxScore is the score a feature gets when it contains every n-gram of
// every term. Scores are divided by it, so full coverage is 1.0.
func MaxScore(terms []string) int {
	total := 0
	for _, t := range terms {
		n := len(t)
		total += n * monoWeight
		total += max(n-1, 0) * biWeight
		total += max(n-2, 0) * triWeight
	}
	return total
}

// Score runs one full scoring pass and returns the entries at or above
// Threshold, best first. Ties go to the shorter title, then the lower id.
//
// The returned slice aliases the scorer's buffer and is only valid until the
// next call to Score.
//
// This is a coverage heuristic: a feature can score for a term it does not
// contain contiguously, as long as it holds enough of the term's n-grams.
func (s *Scorer) Score(terms []string) []ScoreEntry {
	for i := range s.buf {
		s.buf[i] = ScoreEntry{ID: uint16(i)}
	}

	total := MaxScore(terms)
	if total == 0 || len(s.buf) == 0 {
		return s.buf[:0]
	}
	div := float64(total)
	mono := monoWeight / div
	bi := biWeight / div
	tri := triWeight / div

	for _, t := range terms {
		for i := 0; i < len(t); i++ {
			s.add(s.idx.Mono[[1]byte{t[i]}], mono)
			if i+2 <= len(t) {
				s.add(s.idx.Bi[[2]byte{t[i], t[i+1]}], bi)
			}
			if i+3 <= len(t) {
				s.add(s.idx.Tri[[3]byte{t[i], t[i+1], t[i+2]}], tri)
			}
		}
	}

	slices.SortStableFunc(s.buf, func(a, b ScoreEntry) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return s.titleLens[a.ID] - s.titleLens[b.ID]
	})

	// sorted descending: the kept entries are a prefix
	n := 0
	for n < len(s.buf) && s.buf[n].Score >= Threshold {
		n++
	}
	return s.buf[:n]
}

func (s *Scorer) add(ids []uint16, w float64) {
	for _, id := range ids {
		s.buf[id].Score += w
	}
}

// Len returns the size of the score buffer (the corpus size).
func (s *Scorer) Len() int { return len(s.buf) }
