package pipeline

import (
	"context"
	"sync"

	"pixivarc/pkg/pixiv"
)

// expandCurrentUser resolves the session owner's follow list and
// bookmarks into user and artwork ids, when either target is configured.
func (p *Pipeline) expandCurrentUser(ctx context.Context, users chan<- uint64, artworks chan<- pixiv.ArtworkID) {
	targets := p.cfg.Targets
	if !targets.FollowedUsers && !targets.Favorites {
		p.logger.Debug("skipping favorites and followed-users archiving")
		return
	}

	self, err := p.api.SelfUserID(ctx)
	if err != nil {
		p.logger.WithError(err).Error("failed to resolve current user")
		return
	}
	p.logger.InfoWithFields("resolved current user", map[string]interface{}{"user": self})

	var wg sync.WaitGroup

	if targets.FollowedUsers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.expandFollowing(ctx, self, users)
		}()
	}

	if targets.Favorites {
		for _, kind := range []pixiv.ArtworkKind{pixiv.KindIllustration, pixiv.KindText} {
			wg.Add(1)
			go func(kind pixiv.ArtworkKind) {
				defer wg.Done()
				p.expandFavorites(ctx, self, kind, artworks)
			}(kind)
		}
	}

	wg.Wait()
}

// expandFollowing paginates the follow list, emitting one user id per
// followed user
func (p *Pipeline) expandFollowing(ctx context.Context, self uint64, users chan<- uint64) {
	page := uint64(0)
	total := uint64(1)

	for offset := uint64(0); offset <= total; {
		offset = page * pixiv.BookmarkPageLimit
		page++

		listing, err := p.api.Following(ctx, self, int(offset))
		if err != nil {
			p.logger.WithError(err).Error("failed to fetch followed users")
			return
		}
		total = listing.Total

		for _, user := range listing.Users {
			p.logger.InfoWithFields("archive followed user", map[string]interface{}{"user": user.UserID})
			users <- user.UserID
		}
	}
}

// expandFavorites paginates one content family's bookmarks, emitting one
// artwork id per reachable work. Works hidden since bookmarking carry a
// numeric sentinel id and are skipped.
func (p *Pipeline) expandFavorites(ctx context.Context, self uint64, kind pixiv.ArtworkKind, artworks chan<- pixiv.ArtworkID) {
	page := uint64(0)
	total := uint64(1)

	for offset := uint64(0); offset <= total; {
		offset = page * pixiv.BookmarkPageLimit
		page++

		listing, err := p.api.Bookmarks(ctx, self, kind, int(offset))
		if err != nil {
			p.logger.WithError(err).Error("failed to fetch bookmarks")
			return
		}
		total = listing.Total

		for _, work := range listing.Works {
			if work.ID.Unreachable() {
				p.logger.WarnWithFields("skipping unreachable bookmarked work", map[string]interface{}{
					"work": work.ID.Uint64(),
				})
				continue
			}

			id := pixiv.ArtworkID{Kind: kind, ID: work.ID.Uint64()}
			p.logger.InfoWithFields("archive bookmarked work", map[string]interface{}{"artwork": id.String()})
			artworks <- id
		}
	}
}
