// Package tomldata loads a corpus from its data directory:
//
//	data/<version>/version.toml   version metadata
//	data/<version>/<slug>.toml    one file per feature stabilized in <version>
//	data/unstable/<slug>.toml     features not stabilized yet
//
// Feature files reject unknown fields. Any file that is not .toml is an
// error, so stray files never silently drop out of the corpus.
package tomldata

import (
	"bytes"
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/errgroup"

	"github.com/corey/featdex/internal/ports"
)

// UnstableDir is the data subdirectory holding unstabilized features.
const UnstableDir = "unstable"

const versionFile = "version.toml"

type versionData struct {
	Number        string `toml:"number"`
	Channel       string `toml:"channel"`
	ReleaseDate   string `toml:"release_date"`
	ReleaseNotes  string `toml:"release_notes"`
	BlogPostPath  string `toml:"blog_post_path"`
	GHMilestoneID uint64 `toml:"gh_milestone_id"`
}

type featureData struct {
	Title             string   `toml:"title"`
	Flag              string   `toml:"flag"`
	RFCID             uint64   `toml:"rfc_id"`
	ImplPRID          uint64   `toml:"impl_pr_id"`
	TrackingIssueID   uint64   `toml:"tracking_issue_id"`
	StabilizationPRID uint64   `toml:"stabilization_pr_id"`
	DocPath           string   `toml:"doc_path"`
	EditionGuidePath  string   `toml:"edition_guide_path"`
	UnstableBookPath  string   `toml:"unstable_book_path"`
	Items             []string `toml:"items"`
}

// Loader implements ports.Loader over a directory of TOML files.
type Loader struct {
	// Concurrency bounds parallel file decoding. <= 0 means GOMAXPROCS.
	Concurrency int
}

var _ ports.Loader = (*Loader)(nil)

// New returns a Loader with default concurrency.
func New() *Loader { return &Loader{} }

// group is one data subdirectory: a version or the unstable set.
type group struct {
	dir      string
	version  *ports.Version // nil for unstable
	minor    int
	files    []string
	features []ports.Feature
}

// Load reads dir into a snapshot in corpus order: versions newest first,
// each version's features in file-name order, unstable features last.
// It does not validate the corpus; see corpus.Validate.
func (l *Loader) Load(dir string) (*ports.Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var versions []*group
	var unstable *group
	for _, e := range entries {
		if !e.IsDir() {
			return nil, fmt.Errorf("%s: expected only directories in data dir", filepath.Join(dir, e.Name()))
		}
		g := &group{dir: filepath.Join(dir, e.Name())}
		if e.Name() == UnstableDir {
			unstable = g
		} else {
			v, err := readVersion(g.dir)
			if err != nil {
				return nil, err
			}
			minor, err := parseMinor(v.Number)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", filepath.Join(g.dir, versionFile), err)
			}
			g.version = v
			g.minor = minor
			versions = append(versions, g)
		}
		if g.files, err = featureFiles(g.dir); err != nil {
			return nil, err
		}
	}

	slices.SortStableFunc(versions, func(a, b *group) int {
		return cmp.Compare(b.minor, a.minor)
	})

	groups := versions
	if unstable != nil {
		groups = append(groups, unstable)
	}
	if err := l.decodeAll(groups); err != nil {
		return nil, err
	}

	return assemble(groups), nil
}

// decodeAll parses every feature file of every group in parallel. Results
// land at fixed positions, so the output order does not depend on scheduling.
func (l *Loader) decodeAll(groups []*group) error {
	limit := l.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, grp := range groups {
		grp.features = make([]ports.Feature, len(grp.files))
		for i, name := range grp.files {
			g.Go(func() error {
				f, err := readFeature(filepath.Join(grp.dir, name))
				if err != nil {
					return err
				}
				grp.features[i] = f
				return nil
			})
		}
	}
	return g.Wait()
}

func assemble(groups []*group) *ports.Snapshot {
	snap := &ports.Snapshot{}
	total := 0
	for _, g := range groups {
		if g.version != nil {
			snap.Versions = append(snap.Versions, *g.version)
		}
		total += len(g.features)
	}

	snap.Features = make([]ports.Feature, 0, total)
	vi := 0
	for _, g := range groups {
		var v *ports.Version
		if g.version != nil {
			v = &snap.Versions[vi]
			vi++
		}
		for _, f := range g.features {
			f.Version = v
			snap.Features = append(snap.Features, f)
		}
	}
	return snap
}

func readVersion(dir string) (*ports.Version, error) {
	path := filepath.Join(dir, versionFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	var vd versionData
	if err := toml.Unmarshal(raw, &vd); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ch, ok := ports.ParseChannel(vd.Channel)
	if !ok {
		return nil, fmt.Errorf("%s: unknown channel %q", path, vd.Channel)
	}
	return &ports.Version{
		Number:        vd.Number,
		Channel:       ch,
		ReleaseDate:   vd.ReleaseDate,
		ReleaseNotes:  vd.ReleaseNotes,
		BlogPostPath:  vd.BlogPostPath,
		GHMilestoneID: vd.GHMilestoneID,
	}, nil
}

// featureFiles lists the feature files of dir in name order.
func featureFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if name == versionFile {
			continue
		}
		if e.IsDir() || !strings.HasSuffix(name, ".toml") {
			return nil, fmt.Errorf("%s: expected only .toml files", filepath.Join(dir, name))
		}
		names = append(names, name)
	}
	return names, nil
}

func readFeature(path string) (ports.Feature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ports.Feature{}, fmt.Errorf("read feature: %w", err)
	}
	var fd featureData
	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fd); err != nil {
		return ports.Feature{}, fmt.Errorf("%s: %w", path, err)
	}
	return ports.Feature{
		Title:             fd.Title,
		Flag:              fd.Flag,
		Slug:              strings.TrimSuffix(filepath.Base(path), ".toml"),
		Items:             fd.Items,
		RFCID:             fd.RFCID,
		ImplPRID:          fd.ImplPRID,
		TrackingIssueID:   fd.TrackingIssueID,
		StabilizationPRID: fd.StabilizationPRID,
		DocPath:           fd.DocPath,
		EditionGuidePath:  fd.EditionGuidePath,
		UnstableBookPath:  fd.UnstableBookPath,
	}, nil
}

// parseMinor extracts 31 from "1.31" (or "1.31.0").
func parseMinor(number string) (int, error) {
	rest, ok := strings.CutPrefix(number, "1.")
	if !ok {
		return 0, fmt.Errorf("version %q: expected 1.x", number)
	}
	minor, _, _ := strings.Cut(rest, ".")
	n, err := strconv.Atoi(minor)
	if err != nil {
		return 0, fmt.Errorf("version %q: %w", number, err)
	}
	return n, nil
}
