package models

import "sort"

// Conversation is a generated document together with its version history.
type Conversation struct {
	ID             string            `json:"_id" validate:"required"`
	Title          string            `json:"title"`
	CreatedAt      Time              `json:"created_at"`
	UpdatedAt      Time              `json:"updated_at"`
	LatestDocument string            `json:"latest_document,omitempty"`
	Versions       []DocumentVersion `json:"document_versions,omitempty"`
	Messages       []GeneratorTurn   `json:"messages,omitempty"`
}

// DocumentVersion is an immutable snapshot of generated document content.
type DocumentVersion struct {
	Number    int    `json:"version_number" validate:"gte=1"`
	Content   string `json:"content"`
	Timestamp Time   `json:"timestamp"`
}

// DisplayTitle returns the title, or fallback when the title is blank.
func (c Conversation) DisplayTitle(fallback string) string {
	if t := FirstNonEmpty(c.Title); t != "" {
		return t
	}
	return fallback
}

// SortedVersions returns the versions ordered by version number.
func (c Conversation) SortedVersions() []DocumentVersion {
	out := make([]DocumentVersion, len(c.Versions))
	copy(out, c.Versions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Version looks up a version by number.
func (c Conversation) Version(n int) (DocumentVersion, bool) {
	for _, v := range c.Versions {
		if v.Number == n {
			return v, true
		}
	}
	return DocumentVersion{}, false
}

// LatestVersion returns the version with the highest number.
func (c Conversation) LatestVersion() (DocumentVersion, bool) {
	var (
		latest DocumentVersion
		found  bool
	)
	for _, v := range c.Versions {
		if !found || v.Number > latest.Number {
			latest, found = v, true
		}
	}
	return latest, found
}

// LatestContent returns the newest document text, preferring the stored
// latest_document field when present.
func (c Conversation) LatestContent() string {
	if c.LatestDocument != "" {
		return c.LatestDocument
	}
	if v, ok := c.LatestVersion(); ok {
		return v.Content
	}
	return ""
}

// GeneratorTurn is one transcript element as the generator endpoint exchanges it.
type GeneratorTurn struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}
