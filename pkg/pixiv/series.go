package pixiv

import (
	"context"
	"fmt"
)

// SeriesKind discriminates illustration series from text series
type SeriesKind int

const (
	SeriesIllustration SeriesKind = iota
	SeriesText
)

// SeriesID identifies one series crawl target
type SeriesID struct {
	Kind SeriesKind
	ID   uint64
}

// IllustrationSeriesID creates an illustration series id
func IllustrationSeriesID(id uint64) SeriesID {
	return SeriesID{Kind: SeriesIllustration, ID: id}
}

// TextSeriesID creates a text series id
func TextSeriesID(id uint64) SeriesID {
	return SeriesID{Kind: SeriesText, ID: id}
}

func (s SeriesID) String() string {
	switch s.Kind {
	case SeriesText:
		return fmt.Sprintf("novel series %d", s.ID)
	default:
		return fmt.Sprintf("illust series %d", s.ID)
	}
}

// PageSize is the listing page size the platform serves for this series kind
func (s SeriesID) PageSize() int {
	if s.Kind == SeriesText {
		return 30
	}
	return 12
}

// SeriesPage is the envelope body of one series listing page
type SeriesPage struct {
	Page SeriesPageBody `json:"page"`
}

// SeriesPageBody lists one page of series members. Illustration series
// populate Series, text series populate SeriesContents.
type SeriesPageBody struct {
	Total          uint64             `json:"total"`
	Series         []IllustSeriesWork `json:"series"`
	SeriesContents []TextSeriesWork   `json:"seriesContents"`
}

// IllustSeriesWork is one illustration-series member
type IllustSeriesWork struct {
	WorkID string `json:"workId"`
}

// TextSeriesWork is one text-series member
type TextSeriesWork struct {
	ID string `json:"id"`
}

// SeriesListing fetches one listing page. Illustration series are indexed
// by 1-based page number, text series by a running item offset.
func (c *Client) SeriesListing(ctx context.Context, series SeriesID, page int) (*SeriesPageBody, error) {
	var path string
	switch series.Kind {
	case SeriesText:
		order := (page - 1) * series.PageSize()
		path = fmt.Sprintf("/ajax/novel/series_content/%d?lang=ja&last_order=%d&order_by=asc", series.ID, order)
	default:
		path = fmt.Sprintf("/ajax/series/%d?lang=ja&p=%d", series.ID, page)
	}

	listing, err := Fetch[SeriesPage](ctx, c, path)
	if err != nil {
		return nil, err
	}
	return &listing.Page, nil
}
