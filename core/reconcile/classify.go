package reconcile

// Change classifies how a fetched record differs from its stored entry.
type Change string

const (
	// ChangeNew means the record has no stored entry.
	ChangeNew Change = "new"
	// ChangeUnchanged means neither title nor content changed.
	ChangeUnchanged Change = "unchanged"
	// ChangeTitleOnly means only the title changed; the file is renamed in place.
	ChangeTitleOnly Change = "title_only"
	// ChangeContent means the content changed; the file is regenerated.
	// A title change riding along is applied by the regeneration.
	ChangeContent Change = "content_changed"
)

// Classify compares a record's current title and fingerprint with its
// stored entry. A stored entry without a title never counts as a title change.
func Classify(title, fingerprint string, stored *Entry) Change {
	if stored == nil {
		return ChangeNew
	}

	titleChanged := stored.Title != "" && stored.Title != title
	contentChanged := stored.Fingerprint != fingerprint

	switch {
	case contentChanged:
		return ChangeContent
	case titleChanged:
		return ChangeTitleOnly
	default:
		return ChangeUnchanged
	}
}
