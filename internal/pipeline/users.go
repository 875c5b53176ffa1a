package pipeline

import (
	"context"
	"sync"

	"pixivarc/pkg/pixiv"
)

// expandUsers turns each user id into the full list of the user's
// artwork ids. One task per user; failures drop that user only.
func (p *Pipeline) expandUsers(ctx context.Context, users <-chan uint64, artworks chan<- pixiv.ArtworkID) {
	var wg sync.WaitGroup

	for user := range users {
		wg.Add(1)
		p.userStage.AddTotal(1)

		go func(user uint64) {
			defer wg.Done()
			defer p.userStage.Inc()
			p.expandUser(ctx, user, artworks)
		}(user)
	}

	wg.Wait()
	p.logger.Debug("user expansion finished")
}

func (p *Pipeline) expandUser(ctx context.Context, user uint64, artworks chan<- pixiv.ArtworkID) {
	profile, err := p.api.UserProfile(ctx, user)
	if err != nil {
		p.logger.WithError(err).WithField("user", user).Error("failed to fetch user profile")
		return
	}

	ids := profile.ArtworkIDs()
	p.logger.InfoWithFields("resolved user", map[string]interface{}{
		"user":     user,
		"illusts":  len(profile.Illusts),
		"manga":    len(profile.Manga),
		"novels":   len(profile.Novels),
		"artworks": len(ids),
	})

	for _, id := range ids {
		artworks <- id
	}
}
