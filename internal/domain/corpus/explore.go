package corpus

import (
	"fmt"

	"github.com/corey/featdex/internal/ports"
)

// View selects one of the fixed browse lists shown when there is no query.
type View uint8

const (
	Stable View = iota
	RecentlyStabilized
	Unstable
)

// ParseView maps a URL or CLI name to a View.
func ParseView(s string) (View, error) {
	switch s {
	case "", "stable":
		return Stable, nil
	case "recent", "recently-stabilized":
		return RecentlyStabilized, nil
	case "unstable":
		return Unstable, nil
	}
	return Stable, fmt.Errorf("unknown view %q (want stable, recent or unstable)", s)
}

func (v View) String() string {
	switch v {
	case RecentlyStabilized:
		return "recent"
	case Unstable:
		return "unstable"
	default:
		return "stable"
	}
}

// Cursor walks one View. It is a plain value: selecting a view allocates
// nothing and every view is consumed through the same Next method.
//
// Features are ordered newest version first with unstable ones at the very
// end, so every view is a contiguous run (or two) rather than a filter.
type Cursor struct {
	features []ports.Feature
	view     View
	phase    uint8
	pos      int
}

// Explore returns a cursor positioned before the first feature of v.
func (c *Corpus) Explore(v View) Cursor {
	return Cursor{features: c.features, view: v}
}

// Next returns the next feature of the view.
func (cur *Cursor) Next() (*ports.Feature, bool) {
	fs := cur.features
	switch cur.view {
	case Stable:
		if cur.phase == 0 {
			for cur.pos < len(fs) && !fs[cur.pos].IsOnChannel(ports.Stable) {
				cur.pos++
			}
			cur.phase = 1
		}
		if cur.pos < len(fs) && fs[cur.pos].IsOnChannel(ports.Stable) {
			cur.pos++
			return &fs[cur.pos-1], true
		}

	case RecentlyStabilized:
		// beta run first, then the nightly run at the front
		if cur.phase == 0 {
			for cur.pos < len(fs) && fs[cur.pos].IsOnChannel(ports.Nightly) {
				cur.pos++
			}
			cur.phase = 1
		}
		if cur.phase == 1 {
			if cur.pos < len(fs) && fs[cur.pos].IsOnChannel(ports.Beta) {
				cur.pos++
				return &fs[cur.pos-1], true
			}
			cur.phase = 2
			cur.pos = 0
		}
		if cur.pos < len(fs) && fs[cur.pos].IsOnChannel(ports.Nightly) {
			cur.pos++
			return &fs[cur.pos-1], true
		}

	case Unstable:
		if cur.phase == 0 {
			for cur.pos < len(fs) && fs[cur.pos].Version != nil {
				cur.pos++
			}
			cur.phase = 1
		}
		if cur.pos < len(fs) {
			cur.pos++
			return &fs[cur.pos-1], true
		}
	}
	return nil, false
}

// Page collects up to limit features of v after skipping offset of them.
// It also reports whether more features follow. limit <= 0 means no limit.
func (c *Corpus) Page(v View, offset, limit int) ([]*ports.Feature, bool) {
	cur := c.Explore(v)
	for i := 0; i < offset; i++ {
		if _, ok := cur.Next(); !ok {
			return nil, false
		}
	}
	out := make([]*ports.Feature, 0, max(limit, 0))
	for limit <= 0 || len(out) < limit {
		f, ok := cur.Next()
		if !ok {
			return out, false
		}
		out = append(out, f)
	}
	_, more := cur.Next()
	return out, more
}
