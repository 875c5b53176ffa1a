package pipeline

import (
	"time"

	"pixivarc/pkg/archive"
	"pixivarc/pkg/pixiv"
)

// FileRequestKind discriminates the download strategies
type FileRequestKind int

const (
	// RequestImage stores the fetched bytes as-is
	RequestImage FileRequestKind = iota
	// RequestSizedImage additionally resizes to the target dimensions
	// when the decoded image differs
	RequestSizedImage
	// RequestAnimation is the animated-frame path, currently unsupported
	RequestAnimation
)

// FileRequest is one file the download stage must materialize
type FileRequest struct {
	Kind   FileRequestKind
	URL    string
	Width  int
	Height int
	Frames []pixiv.UgoiraFrame
}

// ImageRequest creates a plain image request
func ImageRequest(url string) FileRequest {
	return FileRequest{Kind: RequestImage, URL: url}
}

// SizedImageRequest creates an image request with target dimensions
func SizedImageRequest(url string, width, height int) FileRequest {
	return FileRequest{Kind: RequestSizedImage, URL: url, Width: width, Height: height}
}

// AnimationRequest creates an animated-frames request
func AnimationRequest(url string, frames []pixiv.UgoiraFrame) FileRequest {
	return FileRequest{Kind: RequestAnimation, URL: url, Frames: frames}
}

// FileBatch pairs one artwork's file requests with the producer half of
// its handshake
type FileBatch struct {
	Requests []FileRequest
	Pending  *PendingFiles
}

// FileItem binds an archive file entry to the request that materializes it
type FileItem struct {
	Meta    archive.FileMeta
	Request FileRequest
}

// ContentItem is one ordered piece of a post body. Exactly one field is
// set.
type ContentItem struct {
	Text string
	File *FileItem
}

// SyncUnit is one fully resolved artwork waiting for persistence
type SyncUnit struct {
	Source     string
	Title      string
	AuthorID   string
	AuthorName string
	Published  time.Time
	Updated    time.Time
	Contents   []ContentItem
	Thumb      *FileItem
	Comments   []archive.Comment
	Tags       []pixiv.Tag
	Collection *archive.Collection
	Files      *PendingFiles
}
