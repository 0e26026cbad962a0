// Binary encoding for the corpus snapshot blob.
//
// The blob is zstd-compressed. Decompressed, format v1 is (all integers
// unsigned varints, strings are a varint length followed by the bytes):
//
//	magic:        "FDX1"
//	versionCount
//	per version:  number, channel, releaseDate, releaseNotes, blogPostPath, ghMilestoneID
//	featureCount
//	per feature:  title, flag, slug, versionRef (0 = unstable, else index+1),
//	              rfcID, implPRID, trackingIssueID, stabilizationPRID,
//	              docPath, editionGuidePath, unstableBookPath,
//	              itemCount, items...
package bbolt

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/corey/featdex/internal/ports"
)

const magic = "FDX1"

var errTruncated = errors.New("snapshot blob truncated")

// EncodeAll/DecodeAll on a nil-writer encoder are safe for concurrent use.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	decoder, _ = zstd.NewReader(nil)
)

// encodeSnapshot serializes and compresses snap.
func encodeSnapshot(snap *ports.Snapshot) ([]byte, error) {
	vindex := make(map[*ports.Version]uint64, len(snap.Versions))
	for i := range snap.Versions {
		vindex[&snap.Versions[i]] = uint64(i) + 1
	}

	buf := make([]byte, 0, 64*len(snap.Features))
	buf = append(buf, magic...)

	buf = binary.AppendUvarint(buf, uint64(len(snap.Versions)))
	for _, v := range snap.Versions {
		buf = appendString(buf, v.Number)
		buf = binary.AppendUvarint(buf, uint64(v.Channel))
		buf = appendString(buf, v.ReleaseDate)
		buf = appendString(buf, v.ReleaseNotes)
		buf = appendString(buf, v.BlogPostPath)
		buf = binary.AppendUvarint(buf, v.GHMilestoneID)
	}

	buf = binary.AppendUvarint(buf, uint64(len(snap.Features)))
	for i := range snap.Features {
		f := &snap.Features[i]
		ref := uint64(0)
		if f.Version != nil {
			var ok bool
			if ref, ok = vindex[f.Version]; !ok {
				return nil, fmt.Errorf("feature %q: version %q not in snapshot", f.Slug, f.Version.Number)
			}
		}
		buf = appendString(buf, f.Title)
		buf = appendString(buf, f.Flag)
		buf = appendString(buf, f.Slug)
		buf = binary.AppendUvarint(buf, ref)
		buf = binary.AppendUvarint(buf, f.RFCID)
		buf = binary.AppendUvarint(buf, f.ImplPRID)
		buf = binary.AppendUvarint(buf, f.TrackingIssueID)
		buf = binary.AppendUvarint(buf, f.StabilizationPRID)
		buf = appendString(buf, f.DocPath)
		buf = appendString(buf, f.EditionGuidePath)
		buf = appendString(buf, f.UnstableBookPath)
		buf = binary.AppendUvarint(buf, uint64(len(f.Items)))
		for _, item := range f.Items {
			buf = appendString(buf, item)
		}
	}

	return encoder.EncodeAll(buf, nil), nil
}

// decodeSnapshot decompresses and parses a blob written by encodeSnapshot.
// Every read is bounds-checked; corrupt data yields an error, never a panic.
func decodeSnapshot(blob []byte) (*ports.Snapshot, error) {
	raw, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	if len(raw) < len(magic) || string(raw[:len(magic)]) != magic {
		return nil, fmt.Errorf("unknown snapshot format")
	}
	r := &reader{data: raw, off: len(magic)}

	snap := &ports.Snapshot{}
	nv := r.count()
	snap.Versions = make([]ports.Version, nv)
	for i := range snap.Versions {
		v := &snap.Versions[i]
		v.Number = r.string()
		ch := r.uvarint()
		if ch > uint64(ports.Nightly) {
			return nil, fmt.Errorf("version %d: bad channel %d", i, ch)
		}
		v.Channel = ports.Channel(ch)
		v.ReleaseDate = r.string()
		v.ReleaseNotes = r.string()
		v.BlogPostPath = r.string()
		v.GHMilestoneID = r.uvarint()
	}

	nf := r.count()
	snap.Features = make([]ports.Feature, nf)
	for i := range snap.Features {
		f := &snap.Features[i]
		f.Title = r.string()
		f.Flag = r.string()
		f.Slug = r.string()
		if ref := r.uvarint(); ref > 0 {
			if ref > uint64(nv) {
				return nil, fmt.Errorf("feature %d: version ref %d out of range", i, ref)
			}
			f.Version = &snap.Versions[ref-1]
		}
		f.RFCID = r.uvarint()
		f.ImplPRID = r.uvarint()
		f.TrackingIssueID = r.uvarint()
		f.StabilizationPRID = r.uvarint()
		f.DocPath = r.string()
		f.EditionGuidePath = r.string()
		f.UnstableBookPath = r.string()
		if n := r.count(); n > 0 {
			f.Items = make([]string, n)
			for j := range f.Items {
				f.Items[j] = r.string()
			}
		}
		if r.err != nil {
			break
		}
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(r.data) {
		return nil, fmt.Errorf("snapshot blob: %d trailing bytes", len(r.data)-r.off)
	}
	return snap, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// reader is a sticky-error cursor over a decompressed blob. After the first
// error every read returns a zero value.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.data[r.off:])
	if n <= 0 {
		r.err = fmt.Errorf("%w at offset %d", errTruncated, r.off)
		return 0
	}
	r.off += n
	return v
}

// count reads a length and rejects values larger than the remaining bytes,
// so a corrupt length can't trigger a huge allocation.
func (r *reader) count() int {
	n := r.uvarint()
	if r.err == nil && n > uint64(len(r.data)-r.off) {
		r.err = fmt.Errorf("%w: count %d at offset %d", errTruncated, n, r.off)
		return 0
	}
	return int(n)
}

func (r *reader) string() string {
	n := r.count()
	if r.err != nil {
		return ""
	}
	s := string(r.data[r.off : r.off+n])
	r.off += n
	return s
}
