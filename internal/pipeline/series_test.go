package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixivarc/pkg/pixiv"
)

func TestSeriesExpansionPaginationTermination(t *testing.T) {
	// 25 works with page size 12 must take exactly 3 requests
	requests := 0
	api := &mockAPI{
		seriesListing: func(series pixiv.SeriesID, page int) (*pixiv.SeriesPageBody, error) {
			requests++
			assert.Equal(t, requests, page)

			count := 12
			if page == 3 {
				count = 1
			}
			works := make([]pixiv.IllustSeriesWork, count)
			for i := range works {
				works[i] = pixiv.IllustSeriesWork{WorkID: fmt.Sprintf("%d", (page-1)*12+i+1)}
			}
			return &pixiv.SeriesPageBody{Total: 25, Series: works}, nil
		},
	}

	p := newTestPipeline(api, nil, newMockStore(), nil)

	artworks := make(chan pixiv.ArtworkID, 64)
	p.expandOneSeries(context.Background(), pixiv.IllustrationSeriesID(42), artworks)
	close(artworks)

	assert.Equal(t, 3, requests)

	var collected []pixiv.ArtworkID
	for id := range artworks {
		collected = append(collected, id)
	}
	require.Len(t, collected, 25)
	assert.Equal(t, pixiv.IllustrationID(1), collected[0])
	assert.Equal(t, pixiv.IllustrationID(25), collected[24])
}

func TestSeriesExpansionTextSeries(t *testing.T) {
	requests := 0
	api := &mockAPI{
		seriesListing: func(series pixiv.SeriesID, page int) (*pixiv.SeriesPageBody, error) {
			requests++
			return &pixiv.SeriesPageBody{
				Total:          2,
				SeriesContents: []pixiv.TextSeriesWork{{ID: "7"}, {ID: "8"}},
			}, nil
		},
	}

	p := newTestPipeline(api, nil, newMockStore(), nil)

	artworks := make(chan pixiv.ArtworkID, 64)
	p.expandOneSeries(context.Background(), pixiv.TextSeriesID(9), artworks)
	close(artworks)

	assert.Equal(t, 1, requests)

	var collected []pixiv.ArtworkID
	for id := range artworks {
		collected = append(collected, id)
	}
	assert.Equal(t, []pixiv.ArtworkID{pixiv.TextID(7), pixiv.TextID(8)}, collected)
}

func TestSeriesExpansionFetchFailureDropsSeries(t *testing.T) {
	api := &mockAPI{
		seriesListing: func(pixiv.SeriesID, int) (*pixiv.SeriesPageBody, error) {
			return nil, errNotMocked
		},
	}

	p := newTestPipeline(api, nil, newMockStore(), nil)

	artworks := make(chan pixiv.ArtworkID, 64)
	p.expandOneSeries(context.Background(), pixiv.IllustrationSeriesID(42), artworks)
	close(artworks)

	assert.Empty(t, collectArtworks(artworks))
}

func collectArtworks(ch chan pixiv.ArtworkID) []pixiv.ArtworkID {
	var out []pixiv.ArtworkID
	for id := range ch {
		out = append(out, id)
	}
	return out
}
