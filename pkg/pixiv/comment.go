package pixiv

import (
	"context"
	"fmt"
	"strings"
)

// rootCommentLimit is effectively unbounded: root comments are fetched in
// one page. Reply pages use the platform's own default size.
const rootCommentLimit = 4294967295

// CommentPage is one page of comments or replies
type CommentPage struct {
	HasNext  bool           `json:"hasNext"`
	Comments []CommentEntry `json:"comments"`
}

// CommentEntry is one raw platform comment
type CommentEntry struct {
	UserID          string  `json:"userId"`
	UserName        string  `json:"userName"`
	Img             string  `json:"img"`
	ID              string  `json:"id"`
	CommentDate     string  `json:"commentDate"`
	CommentParentID *string `json:"commentParentId"`
	Editable        bool    `json:"editable"`
	HasReplies      bool    `json:"hasReplies"`
	Content         string  `json:"comment"`
	StampID         *string `json:"stampId"`
}

// Text combines the comment body with its sticker suffix. The two parts
// are joined with a literal single space, matching the platform archive
// format: a pure sticker comment renders as " (Stamp N)".
func (c CommentEntry) Text() string {
	stamp := ""
	if c.StampID != nil {
		stamp = fmt.Sprintf("(Stamp %s)", *c.StampID)
	}
	return strings.Join([]string{c.Content, stamp}, " ")
}

// commentFamily selects the endpoint family for the artwork kind
func commentFamily(novel bool) string {
	if novel {
		return "novel"
	}
	return "illust"
}

// CommentRoots fetches the root comment page of an artwork
func (c *Client) CommentRoots(ctx context.Context, artworkID string, novel bool) (*CommentPage, error) {
	family := commentFamily(novel)
	path := fmt.Sprintf("/ajax/%ss/comments/roots?%s_id=%s&limit=%d", family, family, artworkID, uint64(rootCommentLimit))
	page, err := Fetch[CommentPage](ctx, c, path)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// CommentReplies fetches the first reply page of a comment
func (c *Client) CommentReplies(ctx context.Context, commentID string, novel bool) (*CommentPage, error) {
	family := commentFamily(novel)
	path := fmt.Sprintf("/ajax/%ss/comments/replies?comment_id=%s&page=1", family, commentID)
	page, err := Fetch[CommentPage](ctx, c, path)
	if err != nil {
		return nil, err
	}
	return &page, nil
}
