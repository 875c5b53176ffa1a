package pipeline

import (
	"context"
	"strconv"
	"sync"

	"pixivarc/pkg/pixiv"
)

// expandSeries turns each series id into its member artwork ids by
// paginating the series listing until the reported total is covered.
func (p *Pipeline) expandSeries(ctx context.Context, series <-chan pixiv.SeriesID, artworks chan<- pixiv.ArtworkID) {
	var wg sync.WaitGroup

	for id := range series {
		wg.Add(1)
		p.seriesStage.AddTotal(1)

		go func(id pixiv.SeriesID) {
			defer wg.Done()
			defer p.seriesStage.Inc()
			p.expandOneSeries(ctx, id, artworks)
		}(id)
	}

	wg.Wait()
	p.logger.Debug("series expansion finished")
}

func (p *Pipeline) expandOneSeries(ctx context.Context, series pixiv.SeriesID, artworks chan<- pixiv.ArtworkID) {
	limit := uint64(series.PageSize())

	page := uint64(0)
	total := uint64(1)

	for page*limit < total {
		page++

		listing, err := p.api.SeriesListing(ctx, series, int(page))
		if err != nil {
			p.logger.WithError(err).WithField("series", series.String()).Error("failed to fetch series page")
			return
		}
		total = listing.Total

		for _, work := range listing.Series {
			id, err := strconv.ParseUint(work.WorkID, 10, 64)
			if err != nil {
				p.logger.WithError(err).WithField("series", series.String()).Warn("malformed series work id")
				continue
			}
			artworks <- pixiv.IllustrationID(id)
		}

		for _, work := range listing.SeriesContents {
			id, err := strconv.ParseUint(work.ID, 10, 64)
			if err != nil {
				p.logger.WithError(err).WithField("series", series.String()).Warn("malformed series work id")
				continue
			}
			artworks <- pixiv.TextID(id)
		}
	}

	p.logger.InfoWithFields("resolved series", map[string]interface{}{
		"series": series.String(),
		"total":  total,
	})
}
