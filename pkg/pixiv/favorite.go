package pixiv

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// BookmarkPageLimit is the page size for bookmark and following listings
const BookmarkPageLimit = 100

// FavoritePage is one page of a user's bookmarked works
type FavoritePage struct {
	Total uint64         `json:"total"`
	Works []FavoriteWork `json:"works"`
}

// FavoriteWork is one bookmarked work entry
type FavoriteWork struct {
	ID FavoriteWorkID `json:"id"`
}

// FavoriteWorkID is the id of a bookmarked work. Reachable works carry a
// decimal string id; works hidden or deleted since bookmarking carry a
// numeric sentinel instead.
type FavoriteWorkID struct {
	id          uint64
	unreachable bool
}

// UnmarshalJSON accepts either the string or the numeric sentinel shape
func (f *FavoriteWorkID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		*f = FavoriteWorkID{id: id}
		return nil
	}

	var n uint64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FavoriteWorkID{id: n, unreachable: true}
	return nil
}

// Unreachable reports whether the bookmarked work is no longer accessible
func (f FavoriteWorkID) Unreachable() bool {
	return f.unreachable
}

// Uint64 returns the numeric work id
func (f FavoriteWorkID) Uint64() uint64 {
	return f.id
}

// Bookmarks fetches one page of a user's bookmarks for one content family.
// Pages are indexed by a running item offset.
func (c *Client) Bookmarks(ctx context.Context, userID uint64, kind ArtworkKind, offset int) (*FavoritePage, error) {
	family := "illusts"
	if kind == KindText {
		family = "novels"
	}
	path := fmt.Sprintf("/ajax/user/%d/%s/bookmarks?tag=&offset=%d&limit=%d&rest=show", userID, family, offset, BookmarkPageLimit)
	page, err := Fetch[FavoritePage](ctx, c, path)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// FollowingPage is one page of the users a user follows
type FollowingPage struct {
	Total uint64          `json:"total"`
	Users []FollowingUser `json:"users"`
}

// FollowingUser is one followed-user entry
type FollowingUser struct {
	UserID uint64 `json:"userId"`
}

// Following fetches one page of the users followed by userID
func (c *Client) Following(ctx context.Context, userID uint64, offset int) (*FollowingPage, error) {
	path := fmt.Sprintf("/ajax/user/%d/following?tag=&offset=%d&limit=%d&rest=show", userID, offset, BookmarkPageLimit)
	page, err := Fetch[FollowingPage](ctx, c, path)
	if err != nil {
		return nil, err
	}
	return &page, nil
}
