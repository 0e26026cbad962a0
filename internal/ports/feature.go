package ports

// FeatureID is the stable identifier of a feature inside a corpus: its
// position. The width of this type bounds the corpus at 65,536 features.
type FeatureID = uint16

// Channel is the release channel a version belongs to.
type Channel uint8

const (
	Stable Channel = iota
	Beta
	Nightly
)

// String returns the lowercase channel name used in data files and JSON.
func (c Channel) String() string {
	switch c {
	case Beta:
		return "beta"
	case Nightly:
		return "nightly"
	default:
		return "stable"
	}
}

// ParseChannel maps a channel name to a Channel. An empty name means stable.
func ParseChannel(s string) (Channel, bool) {
	switch s {
	case "", "stable":
		return Stable, true
	case "beta":
		return Beta, true
	case "nightly":
		return Nightly, true
	}
	return Stable, false
}

// Version describes one toolchain release.
type Version struct {
	Number        string  // e.g. "1.31"
	Channel       Channel // stable / beta / nightly
	ReleaseDate   string  // yyyy-mm-dd
	ReleaseNotes  string  // RELEASES.md anchor
	BlogPostPath  string  // path below the blog root
	GHMilestoneID uint64
}

// Feature is one searchable record. Items are language items (functions,
// types, modules) that belong to it and are rendered as inline code.
//
// Title and Items may carry backtick-delimited inline code markup.
// Items never contain a backtick themselves.
type Feature struct {
	Title string
	Flag  string // feature flag name, empty if none
	Slug  string
	Items []string

	// Version is nil for features that are not stabilized yet.
	Version *Version

	RFCID             uint64
	ImplPRID          uint64
	TrackingIssueID   uint64
	StabilizationPRID uint64
	DocPath           string
	EditionGuidePath  string
	UnstableBookPath  string
}

// IsOnChannel reports whether the feature was released on the given channel.
// Unstable features are on no channel.
func (f *Feature) IsOnChannel(c Channel) bool {
	return f.Version != nil && f.Version.Channel == c
}

// SearchableStrings returns the strings the n-gram index covers, in order:
// title, flag (if present), items.
func (f *Feature) SearchableStrings() []string {
	out := make([]string, 0, 2+len(f.Items))
	out = append(out, f.Title)
	if f.Flag != "" {
		out = append(out, f.Flag)
	}
	return append(out, f.Items...)
}
