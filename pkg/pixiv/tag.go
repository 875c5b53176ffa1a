package pixiv

import "strings"

// TagList is the tag block attached to an artwork record
type TagList struct {
	AuthorID string     `json:"authorId"`
	IsLocked bool       `json:"isLocked"`
	Writable bool       `json:"writable"`
	Tags     []TagEntry `json:"tags"`
}

// TagEntry is one raw platform tag
type TagEntry struct {
	Name      string `json:"tag"`
	Locked    bool   `json:"locked"`
	Deletable bool   `json:"deletable"`
}

// Tag is a normalized tag ready for the archive. Scoped tags belong to the
// current platform; unscoped tags are platform-agnostic.
type Tag struct {
	Name   string
	Scoped bool
}

// Normalized applies the maturity-tag rule: R-18 and R-18G become
// lowercase platform-agnostic tags, everything else stays scoped to the
// platform.
func (t TagList) Normalized() []Tag {
	tags := make([]Tag, 0, len(t.Tags))
	for _, entry := range t.Tags {
		name := entry.Name
		if name == "R-18" || name == "R-18G" {
			tags = append(tags, Tag{Name: strings.ToLower(name), Scoped: false})
		} else {
			tags = append(tags, Tag{Name: name, Scoped: true})
		}
	}
	return tags
}
