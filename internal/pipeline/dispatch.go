package pipeline

import "pixivarc/pkg/pixiv"

// dispatch pushes every configured seed identifier onto its stage channel
// exactly once. Pure fan-out; channel lifecycle is owned by Run.
func (p *Pipeline) dispatch(users chan<- uint64, series chan<- pixiv.SeriesID, artworks chan<- pixiv.ArtworkID) {
	targets := p.cfg.Targets

	for _, user := range targets.Users {
		p.logger.InfoWithFields("archive user", map[string]interface{}{"user": user})
		users <- user
	}

	for _, id := range targets.IllustSeries {
		p.logger.InfoWithFields("archive illust series", map[string]interface{}{"series": id})
		series <- pixiv.IllustrationSeriesID(id)
	}
	for _, id := range targets.NovelSeries {
		p.logger.InfoWithFields("archive novel series", map[string]interface{}{"series": id})
		series <- pixiv.TextSeriesID(id)
	}

	for _, id := range targets.Illusts {
		p.logger.InfoWithFields("archive illust", map[string]interface{}{"illust": id})
		artworks <- pixiv.IllustrationID(id)
	}
	for _, id := range targets.Novels {
		p.logger.InfoWithFields("archive novel", map[string]interface{}{"novel": id})
		artworks <- pixiv.TextID(id)
	}
}
