// Package pipeline implements the crawl pipeline: seed identifiers are
// expanded into artwork ids, each artwork is resolved into a sync unit,
// its files are downloaded ahead of persistence, and a single consumer
// commits one transaction per post into the archive.
package pipeline

import (
	"context"
	"sync"

	"pixivarc/pkg/config"
	"pixivarc/pkg/logger"
	"pixivarc/pkg/pixiv"
	"pixivarc/pkg/progress"
)

// PlatformName is the archive platform every post is imported under
const PlatformName = "pixiv"

// chanBuffer sizes the stage channels. Buffers smooth bursts; sustained
// imbalance backpressures producers instead of growing memory without
// bound.
const chanBuffer = 64

// Pipeline wires the crawl stages together
type Pipeline struct {
	cfg        *config.Config
	api        API
	downloader Downloader
	store      Store
	logger     logger.Logger

	userStage     *progress.Stage
	seriesStage   *progress.Stage
	artworkStage  *progress.Stage
	fileStage     *progress.Stage
	archivedStage *progress.Stage
}

// New creates a pipeline over the given collaborators
func New(cfg *config.Config, api API, downloader Downloader, store Store, tracker *progress.Tracker, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetLogger()
	}
	if tracker == nil {
		tracker = progress.NewTracker(false)
	}

	return &Pipeline{
		cfg:           cfg,
		api:           api,
		downloader:    downloader,
		store:         store,
		logger:        log,
		userStage:     tracker.Stage("user"),
		seriesStage:   tracker.Stage("series"),
		artworkStage:  tracker.Stage("artwork"),
		fileStage:     tracker.Stage("files"),
		archivedStage: tracker.Stage("archived"),
	}
}

// Run executes the pipeline until every stage has drained. All stages run
// concurrently; each channel closes exactly when its producers finish.
func (p *Pipeline) Run(ctx context.Context) error {
	platform, err := p.store.ImportPlatform(PlatformName)
	if err != nil {
		return err
	}

	users := make(chan uint64, chanBuffer)
	series := make(chan pixiv.SeriesID, chanBuffer)
	artworks := make(chan pixiv.ArtworkID, chanBuffer)
	files := make(chan FileBatch, chanBuffer)
	units := make(chan SyncUnit, chanBuffer)

	// users is fed by the dispatcher and the current-user stage; artworks
	// by those two plus both expansion stages.
	var userProducers, artworkProducers sync.WaitGroup
	userProducers.Add(2)
	artworkProducers.Add(4)

	go func() {
		userProducers.Wait()
		close(users)
	}()
	go func() {
		artworkProducers.Wait()
		close(artworks)
	}()

	go func() {
		defer userProducers.Done()
		defer artworkProducers.Done()
		p.dispatch(users, series, artworks)
		close(series)
	}()

	go func() {
		defer userProducers.Done()
		defer artworkProducers.Done()
		p.expandCurrentUser(ctx, users, artworks)
	}()

	go func() {
		defer artworkProducers.Done()
		p.expandUsers(ctx, users, artworks)
	}()

	go func() {
		defer artworkProducers.Done()
		p.expandSeries(ctx, series, artworks)
	}()

	go func() {
		p.resolveArtworks(ctx, artworks, files, units)
		close(files)
		close(units)
	}()

	var consumers sync.WaitGroup
	consumers.Add(2)
	go func() {
		defer consumers.Done()
		p.downloadFiles(ctx, files)
	}()
	go func() {
		defer consumers.Done()
		p.persist(platform, units)
	}()
	consumers.Wait()

	p.logger.Info("archive completed")
	return nil
}
