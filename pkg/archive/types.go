package archive

import "time"

// PlatformID identifies a source platform row
type PlatformID int64

// AuthorID identifies an author row
type AuthorID int64

// PostID identifies a post row
type PostID int64

// FileMeta names one file belonging to a post. Extra carries free-form
// metadata about the file, like the natural dimensions of an image.
type FileMeta struct {
	Filename string
	Mime     string
	Extra    map[string]interface{}
}

// ImageDimensions builds the extra metadata for an image of known size
func ImageDimensions(width, height int) map[string]interface{} {
	return map[string]interface{}{"width": width, "height": height}
}

// Content is one ordered piece of a post's body. Exactly one field is set.
type Content struct {
	Text string
	File *FileMeta
}

// TextContent creates a text body piece
func TextContent(text string) Content {
	return Content{Text: text}
}

// FileContent creates a file body piece
func FileContent(filename, mime string) Content {
	return Content{File: &FileMeta{Filename: filename, Mime: mime}}
}

// Tag is one post tag. Platform is nil for platform-agnostic tags.
type Tag struct {
	Name     string
	Platform *PlatformID
}

// Comment is one archived comment with its reply tree
type Comment struct {
	User    string    `json:"user"`
	Text    string    `json:"text"`
	Replies []Comment `json:"replies"`
}

// Collection groups posts under a durable source URL
type Collection struct {
	Name   string
	Source string
}

// PostDraft carries everything needed to create one post
type PostDraft struct {
	Platform    PlatformID
	Author      AuthorID
	Source      string
	Title       string
	Published   time.Time
	Updated     time.Time
	Contents    []Content
	Thumb       *FileMeta
	Tags        []Tag
	Comments    []Comment
	Collections []Collection
}

// FilePlan maps one post file to its final location under the archive root
type FilePlan struct {
	Filename string
	Path     string
}
