package pixiv

import (
	"context"
	"encoding/json"
	"fmt"

	errs "pixivarc/pkg/errors"
)

// ArtworkKind discriminates the two crawlable content families
type ArtworkKind int

const (
	// KindIllustration covers illustrations, manga and ugoira
	KindIllustration ArtworkKind = iota
	// KindText covers novels
	KindText
)

// ArtworkID identifies one crawl target
type ArtworkID struct {
	Kind ArtworkKind
	ID   uint64
}

// IllustrationID creates an illustration artwork id
func IllustrationID(id uint64) ArtworkID {
	return ArtworkID{Kind: KindIllustration, ID: id}
}

// TextID creates a text-work artwork id
func TextID(id uint64) ArtworkID {
	return ArtworkID{Kind: KindText, ID: id}
}

func (a ArtworkID) String() string {
	switch a.Kind {
	case KindText:
		return fmt.Sprintf("novel %d", a.ID)
	default:
		return fmt.Sprintf("illust %d", a.ID)
	}
}

// SourceURL derives the canonical public URL, used as the durable post key
func (a ArtworkID) SourceURL() string {
	switch a.Kind {
	case KindText:
		return fmt.Sprintf("https://www.pixiv.net/novel/show.php?id=%d", a.ID)
	default:
		return fmt.Sprintf("https://www.pixiv.net/artworks/%d", a.ID)
	}
}

// metadataPath derives the metadata-fetch endpoint path
func (a ArtworkID) metadataPath() string {
	switch a.Kind {
	case KindText:
		return fmt.Sprintf("/ajax/novel/%d", a.ID)
	default:
		return fmt.Sprintf("/ajax/illust/%d", a.ID)
	}
}

// AiType is the platform's AI-generation flag
type AiType int

const (
	AiTypeUnknown AiType = 0
	AiTypeNo      AiType = 1
	AiTypeYes     AiType = 2
)

// IllustType distinguishes the illustration content sub-kinds
type IllustType int

const (
	IllustTypeIllust IllustType = 0
	IllustTypeManga  IllustType = 1
	IllustTypeUgoira IllustType = 2
)

// Artwork is the fetched metadata record for one artwork
type Artwork struct {
	ID           string
	Title        string
	UserID       string
	UserName     string
	AiType       AiType
	CommentCount int
	CommentOff   int
	CreateDate   string
	UploadDate   string
	Description  string
	Content      Content
	Tags         TagList
	SeriesNav    *SeriesNavData
}

// Content is the artwork's content variant. Exactly one branch is set,
// determined by which shape the response body matched.
type Content struct {
	Illust *IllustContent
	Text   *TextContent
}

// IllustContent is the illustration-family variant
type IllustContent struct {
	Type IllustType
}

// TextContent is the text-work variant
type TextContent struct {
	Body     string
	CoverURL string
}

// AllowsComments reports whether the artwork both permits comments and has
// at least one
func (a *Artwork) AllowsComments() bool {
	return a.CommentOff == 0 && a.CommentCount > 0
}

// artworkWire carries every field of both content shapes so the variant
// can be selected after decoding
type artworkWire struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	UserID       string         `json:"userId"`
	UserName     string         `json:"userName"`
	AiType       AiType         `json:"aiType"`
	CommentCount int            `json:"commentCount"`
	CommentOff   int            `json:"commentOff"`
	CreateDate   string         `json:"createDate"`
	UploadDate   string         `json:"uploadDate"`
	Description  string         `json:"description"`
	Tags         TagList        `json:"tags"`
	SeriesNav    *SeriesNavData `json:"seriesNavData"`

	// illustration shape
	IllustID   *string     `json:"illustId"`
	IllustType *IllustType `json:"illustType"`

	// text shape
	NovelContent *string `json:"content"`
	CoverURL     *string `json:"coverUrl"`
}

// UnmarshalJSON decodes an artwork record, selecting the content variant
// by trying the illustration shape before the text shape. Both shape
// checks require their discriminating fields, so a text body can never
// match the illustration branch.
func (a *Artwork) UnmarshalJSON(data []byte) error {
	var wire artworkWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	content := Content{}
	switch {
	case wire.IllustID != nil && wire.IllustType != nil:
		content.Illust = &IllustContent{Type: *wire.IllustType}
	case wire.NovelContent != nil && wire.CoverURL != nil:
		content.Text = &TextContent{Body: *wire.NovelContent, CoverURL: *wire.CoverURL}
	default:
		return errs.New(errs.ErrorTypeParsing, "artwork body matches neither illustration nor text shape")
	}

	*a = Artwork{
		ID:           wire.ID,
		Title:        wire.Title,
		UserID:       wire.UserID,
		UserName:     wire.UserName,
		AiType:       wire.AiType,
		CommentCount: wire.CommentCount,
		CommentOff:   wire.CommentOff,
		CreateDate:   wire.CreateDate,
		UploadDate:   wire.UploadDate,
		Description:  wire.Description,
		Content:      content,
		Tags:         wire.Tags,
		SeriesNav:    wire.SeriesNav,
	}
	return nil
}

// SeriesNavData is the series-navigation link attached to serialized works
type SeriesNavData struct {
	SeriesID string `json:"seriesId"`
	Title    string `json:"title"`
}

// CollectionURL derives the durable collection source for the series the
// artwork belongs to
func (n *SeriesNavData) CollectionURL(userID string) string {
	return fmt.Sprintf("https://www.pixiv.net/user/%s/series/%s", userID, n.SeriesID)
}

// IllustPage is one page of an illustration or manga work
type IllustPage struct {
	URLs   IllustPageURLs `json:"urls"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
}

// IllustPageURLs lists the rendered resolutions of one page
type IllustPageURLs struct {
	Original  string `json:"original"`
	Regular   string `json:"regular"`
	Small     string `json:"small"`
	ThumbMini string `json:"thumb_mini"`
}

// UgoiraMeta is the extra metadata record for animated works
type UgoiraMeta struct {
	OriginalSrc string        `json:"originalSrc"`
	Src         string        `json:"src"`
	MimeType    string        `json:"mime_type"`
	Frames      []UgoiraFrame `json:"frames"`
}

// UgoiraFrame is one frame's timing entry
type UgoiraFrame struct {
	File  string `json:"file"`
	Delay int    `json:"delay"`
}

// ArtworkMeta fetches the metadata record for one artwork id
func (c *Client) ArtworkMeta(ctx context.Context, id ArtworkID) (*Artwork, error) {
	artwork, err := Fetch[Artwork](ctx, c, id.metadataPath())
	if err != nil {
		return nil, err
	}
	return &artwork, nil
}

// IllustPages fetches the full-resolution page list of an illustration
func (c *Client) IllustPages(ctx context.Context, illustID string) ([]IllustPage, error) {
	return Fetch[[]IllustPage](ctx, c, fmt.Sprintf("/ajax/illust/%s/pages?lang=ja", illustID))
}

// Ugoira fetches the frame metadata of an animated work
func (c *Client) Ugoira(ctx context.Context, illustID string) (*UgoiraMeta, error) {
	meta, err := Fetch[UgoiraMeta](ctx, c, fmt.Sprintf("/ajax/illust/%s/ugoira_meta", illustID))
	if err != nil {
		return nil, err
	}
	return &meta, nil
}
