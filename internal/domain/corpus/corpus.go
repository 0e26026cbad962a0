// Package corpus holds the ordered, immutable set of features that search runs
// over. A Corpus is validated once at construction and read-only afterwards,
// so any number of goroutines may read it without locking.
package corpus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corey/featdex/internal/ports"
)

// MaxFeatures is the largest corpus a uint16 FeatureID can address.
const MaxFeatures = 1 << 16

var (
	ErrBacktickInItem  = errors.New("item contains a backtick")
	ErrTooManyFeatures = errors.New("too many features")
	ErrDuplicateSlug   = errors.New("duplicate slug")
	ErrMissingTitle    = errors.New("missing title")
)

// ValidationError reports one malformed feature. Malformed data is fatal at
// load time: it is never dropped or sanitized.
type ValidationError struct {
	Slug  string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("feature %q: %v", e.Slug, e.Err)
	}
	return fmt.Sprintf("feature %q: %s: %v", e.Slug, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks every invariant the index and the markup renderer rely on.
// All problems are reported, joined.
func Validate(snap *ports.Snapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	if n := len(snap.Features); n > MaxFeatures {
		return fmt.Errorf("%w: %d > %d", ErrTooManyFeatures, n, MaxFeatures)
	}

	var errs []error
	seen := make(map[string]bool, len(snap.Features))
	for i := range snap.Features {
		f := &snap.Features[i]
		if strings.TrimSpace(f.Title) == "" {
			errs = append(errs, &ValidationError{Slug: f.Slug, Field: "title", Err: ErrMissingTitle})
		}
		if seen[f.Slug] {
			errs = append(errs, &ValidationError{Slug: f.Slug, Err: ErrDuplicateSlug})
		}
		seen[f.Slug] = true
		// Items are always rendered as code; a backtick inside one would
		// break the code/highlight interleaving.
		for j, item := range f.Items {
			if strings.IndexByte(item, '`') >= 0 {
				errs = append(errs, &ValidationError{
					Slug:  f.Slug,
					Field: fmt.Sprintf("items[%d]", j),
					Err:   ErrBacktickInItem,
				})
			}
		}
	}
	return errors.Join(errs...)
}

// Corpus is the validated, ordered feature set.
type Corpus struct {
	versions  []ports.Version
	features  []ports.Feature
	bySlug    map[string]ports.FeatureID
	titleLens []int
}

// New validates snap and wraps it. The snapshot must not be modified
// afterwards; the corpus shares its slices.
func New(snap *ports.Snapshot) (*Corpus, error) {
	if err := Validate(snap); err != nil {
		return nil, err
	}

	c := &Corpus{
		versions:  snap.Versions,
		features:  snap.Features,
		bySlug:    make(map[string]ports.FeatureID, len(snap.Features)),
		titleLens: make([]int, len(snap.Features)),
	}
	for i := range snap.Features {
		c.bySlug[snap.Features[i].Slug] = ports.FeatureID(i)
		c.titleLens[i] = len(snap.Features[i].Title)
	}
	return c, nil
}

// Len returns the number of features.
func (c *Corpus) Len() int { return len(c.features) }

// Features returns all features in corpus order. Callers must not modify it.
func (c *Corpus) Features() []ports.Feature { return c.features }

// Versions returns all versions, newest first.
func (c *Corpus) Versions() []ports.Version { return c.versions }

// TitleLens returns the byte length of every title, indexed by FeatureID.
func (c *Corpus) TitleLens() []int { return c.titleLens }

// Feature returns the feature with the given id.
func (c *Corpus) Feature(id ports.FeatureID) *ports.Feature {
	return &c.features[id]
}

// BySlug looks a feature up by its permalink slug.
func (c *Corpus) BySlug(slug string) (*ports.Feature, bool) {
	id, ok := c.bySlug[slug]
	if !ok {
		return nil, false
	}
	return &c.features[id], true
}

// Version looks a version up by number.
func (c *Corpus) Version(number string) (*ports.Version, bool) {
	for i := range c.versions {
		if c.versions[i].Number == number {
			return &c.versions[i], true
		}
	}
	return nil, false
}

// FeaturesOf returns the features stabilized in the given version.
func (c *Corpus) FeaturesOf(number string) []*ports.Feature {
	var out []*ports.Feature
	for i := range c.features {
		if v := c.features[i].Version; v != nil && v.Number == number {
			out = append(out, &c.features[i])
		}
	}
	return out
}

// Snapshot returns the corpus contents in their storable form.
func (c *Corpus) Snapshot() *ports.Snapshot {
	return &ports.Snapshot{Versions: c.versions, Features: c.features}
}
