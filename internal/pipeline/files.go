package pipeline

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	errs "pixivarc/pkg/errors"
)

// downloadFiles drains the file batch queue. Batches run under a counting
// permit independent of the client's rate limiter because decoding and
// resizing are CPU- and memory-bound. A batch is all-or-nothing: any
// request failure fails the whole handshake and the temp files of the
// batch are discarded.
func (p *Pipeline) downloadFiles(ctx context.Context, batches <-chan FileBatch) {
	permits := p.cfg.Download.ConcurrentBatches
	if permits <= 0 {
		permits = 3
	}
	semaphore := make(chan struct{}, permits)

	var wg sync.WaitGroup
	for batch := range batches {
		if len(batch.Requests) == 0 {
			// Units without files must still unblock persistence
			batch.Pending.Resolve(map[string]string{})
			continue
		}

		wg.Add(1)
		p.fileStage.AddTotal(int64(len(batch.Requests)))

		go func(batch FileBatch) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			p.downloadBatch(ctx, batch)
		}(batch)
	}

	wg.Wait()
	p.logger.Debug("download stage finished")
}

func (p *Pipeline) downloadBatch(ctx context.Context, batch FileBatch) {
	var mu sync.Mutex
	files := make(map[string]string, len(batch.Requests))

	group, groupCtx := errgroup.WithContext(ctx)
	for _, request := range batch.Requests {
		request := request
		group.Go(func() error {
			path, err := p.downloadFile(groupCtx, request)
			p.fileStage.Inc()
			if err != nil {
				return err
			}

			mu.Lock()
			files[request.URL] = path
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		p.logger.WithError(err).Error("failed to download file batch")
		for _, path := range files {
			os.Remove(path)
		}
		batch.Pending.Fail()
		return
	}

	batch.Pending.Resolve(files)
}

func (p *Pipeline) downloadFile(ctx context.Context, request FileRequest) (string, error) {
	if request.Kind == RequestAnimation {
		return "", errs.Unsupported("ugoira download is not implemented")
	}

	path, err := p.downloader.Download(ctx, request.URL)
	if err != nil {
		return "", err
	}

	if request.Kind == RequestSizedImage {
		if err := resizeImageFile(path, request.Width, request.Height); err != nil {
			os.Remove(path)
			return "", err
		}
	}

	return path, nil
}
