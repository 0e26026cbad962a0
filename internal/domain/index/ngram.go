package index

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/corey/featdex/internal/ports"
)

// Index holds the three n-gram tables. Each key maps to the sorted,
// deduplicated ids of every feature containing that byte sequence in one of
// its searchable strings. Immutable after Build; safe for concurrent reads.
type Index struct {
	Mono map[[1]byte][]uint16
	Bi   map[[2]byte][]uint16
	Tri  map[[3]byte][]uint16
}

// Stats summarizes table sizes for health output.
type Stats struct {
	Monograms int `json:"monograms"`
	Bigrams   int `json:"bigrams"`
	Trigrams  int `json:"trigrams"`
	Postings  int `json:"postings"`
}

// indexable reports whether b may appear in an indexed window: ASCII graphic
// (0x21..0x7E) and not the inline code delimiter.
func indexable(b byte) bool {
	return b > ' ' && b < 0x7f && b != '`'
}

// Build indexes every feature's title, flag and items. It cannot fail: the
// features are expected to have passed corpus.Validate.
func Build(features []ports.Feature) *Index {
	mono := make(map[[1]byte]*roaring.Bitmap)
	bi := make(map[[2]byte]*roaring.Bitmap)
	tri := make(map[[3]byte]*roaring.Bitmap)

	for i := range features {
		id := uint32(i)
		for _, s := range features[i].SearchableStrings() {
			eachWindow(s, 1, func(w string) { add(mono, [1]byte{w[0]}, id) })
			eachWindow(s, 2, func(w string) { add(bi, [2]byte{w[0], w[1]}, id) })
			eachWindow(s, 3, func(w string) { add(tri, [3]byte{w[0], w[1], w[2]}, id) })
		}
	}

	return &Index{
		Mono: freeze(mono),
		Bi:   freeze(bi),
		Tri:  freeze(tri),
	}
}

// eachWindow calls fn for every n-byte window of s made only of indexable
// bytes. Windows touching any other byte are skipped.
func eachWindow(s string, n int, fn func(w string)) {
	// run counts the consecutive indexable bytes ending at i
	run := 0
	for i := 0; i < len(s); i++ {
		if !indexable(s[i]) {
			run = 0
			continue
		}
		run++
		if run >= n {
			fn(s[i+1-n : i+1])
		}
	}
}

func add[K comparable](m map[K]*roaring.Bitmap, key K, id uint32) {
	bm, ok := m[key]
	if !ok {
		bm = roaring.New()
		m[key] = bm
	}
	bm.Add(id)
}

// freeze converts the build-time bitmaps into compact sorted id lists.
func freeze[K comparable](m map[K]*roaring.Bitmap) map[K][]uint16 {
	out := make(map[K][]uint16, len(m))
	for k, bm := range m {
		ids := make([]uint16, 0, bm.GetCardinality())
		it := bm.Iterator()
		for it.HasNext() {
			ids = append(ids, uint16(it.Next()))
		}
		out[k] = ids
	}
	return out
}

// Stats counts keys and postings across the three tables.
func (idx *Index) Stats() Stats {
	st := Stats{
		Monograms: len(idx.Mono),
		Bigrams:   len(idx.Bi),
		Trigrams:  len(idx.Tri),
	}
	for _, ids := range idx.Mono {
		st.Postings += len(ids)
	}
	for _, ids := range idx.Bi {
		st.Postings += len(ids)
	}
	for _, ids := range idx.Tri {
		st.Postings += len(ids)
	}
	return st
}
