package pixiv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// WorkSet is a set of artwork ids keyed by their decimal string form. The
// platform serves it as a JSON object, except when empty, where it may
// arrive as an empty array instead.
type WorkSet map[string]json.RawMessage

// UnmarshalJSON accepts either the object shape or the empty-collection shapes
func (w *WorkSet) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] == '[' || bytes.Equal(trimmed, []byte("null")) {
		*w = nil
		return nil
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return err
	}
	*w = m
	return nil
}

// IDs parses the set's keys as numeric artwork ids, skipping malformed keys
func (w WorkSet) IDs() []uint64 {
	ids := make([]uint64, 0, len(w))
	for key := range w {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// UserProfile lists every artwork a user has published, grouped by family
type UserProfile struct {
	Illusts WorkSet `json:"illusts"`
	Manga   WorkSet `json:"manga"`
	Novels  WorkSet `json:"novels"`
}

// ArtworkIDs flattens the profile into crawlable artwork ids. Illustrations
// and manga share the illustration family; novels are text works.
func (p *UserProfile) ArtworkIDs() []ArtworkID {
	var ids []ArtworkID
	for _, id := range p.Illusts.IDs() {
		ids = append(ids, IllustrationID(id))
	}
	for _, id := range p.Manga.IDs() {
		ids = append(ids, IllustrationID(id))
	}
	for _, id := range p.Novels.IDs() {
		ids = append(ids, TextID(id))
	}
	return ids
}

// UserProfile fetches the complete works listing of a user
func (c *Client) UserProfile(ctx context.Context, userID uint64) (*UserProfile, error) {
	profile, err := Fetch[UserProfile](ctx, c, fmt.Sprintf("/ajax/user/%d/profile/all?lang=ja", userID))
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// selfStatus is the envelope body of the session-settings endpoint
type selfStatus struct {
	UserStatus struct {
		UserID string `json:"user_id"`
	} `json:"user_status"`
}

// SelfUserID resolves the numeric user id of the session owner
func (c *Client) SelfUserID(ctx context.Context) (uint64, error) {
	status, err := Fetch[selfStatus](ctx, c, "/ajax/settings/self?lang=ja")
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(status.UserStatus.UserID, 10, 64)
}
