package corpus

import "github.com/corey/featdex/internal/ports"

// VersionView is the JSON form of a version.
type VersionView struct {
	Number        string `json:"number"`
	Channel       string `json:"channel"`
	ReleaseDate   string `json:"release_date,omitempty"`
	ReleaseNotes  string `json:"release_notes,omitempty"`
	BlogPostPath  string `json:"blog_post_path,omitempty"`
	GHMilestoneID uint64 `json:"gh_milestone_id,omitempty"`
}

// FeatureView is the JSON form of a feature. Version is the version number,
// null for unstable features.
type FeatureView struct {
	Title             string   `json:"title"`
	Flag              string   `json:"flag,omitempty"`
	Slug              string   `json:"slug,omitempty"`
	Version           *string  `json:"version"`
	Channel           string   `json:"channel,omitempty"`
	RFCID             uint64   `json:"rfc_id,omitempty"`
	ImplPRID          uint64   `json:"impl_pr_id,omitempty"`
	TrackingIssueID   uint64   `json:"tracking_issue_id,omitempty"`
	StabilizationPRID uint64   `json:"stabilization_pr_id,omitempty"`
	DocPath           string   `json:"doc_path,omitempty"`
	EditionGuidePath  string   `json:"edition_guide_path,omitempty"`
	UnstableBookPath  string   `json:"unstable_book_path,omitempty"`
	Items             []string `json:"items,omitempty"`
}

// ViewOfVersion converts v to its JSON form.
func ViewOfVersion(v *ports.Version) VersionView {
	return VersionView{
		Number:        v.Number,
		Channel:       v.Channel.String(),
		ReleaseDate:   v.ReleaseDate,
		ReleaseNotes:  v.ReleaseNotes,
		BlogPostPath:  v.BlogPostPath,
		GHMilestoneID: v.GHMilestoneID,
	}
}

// ViewOf converts f to its JSON form.
func ViewOf(f *ports.Feature) FeatureView {
	fv := FeatureView{
		Title:             f.Title,
		Flag:              f.Flag,
		Slug:              f.Slug,
		RFCID:             f.RFCID,
		ImplPRID:          f.ImplPRID,
		TrackingIssueID:   f.TrackingIssueID,
		StabilizationPRID: f.StabilizationPRID,
		DocPath:           f.DocPath,
		EditionGuidePath:  f.EditionGuidePath,
		UnstableBookPath:  f.UnstableBookPath,
		Items:             f.Items,
	}
	if f.Version != nil {
		n := f.Version.Number
		fv.Version = &n
		fv.Channel = f.Version.Channel.String()
	}
	return fv
}

// ViewsOf converts a feature list.
func ViewsOf(features []*ports.Feature) []FeatureView {
	out := make([]FeatureView, len(features))
	for i, f := range features {
		out[i] = ViewOf(f)
	}
	return out
}
