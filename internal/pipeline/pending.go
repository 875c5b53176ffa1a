package pipeline

import (
	"sync"

	errs "pixivarc/pkg/errors"
)

// PendingFiles is the one-shot handshake between artwork resolution and
// the download stage. The download stage resolves it exactly once with a
// request-URL to temp-file mapping, or fails it; the persistence stage
// awaits it exactly once.
type PendingFiles struct {
	once sync.Once
	ch   chan map[string]string
}

// NewPendingFiles creates an unresolved handshake
func NewPendingFiles() *PendingFiles {
	return &PendingFiles{ch: make(chan map[string]string, 1)}
}

// Resolve completes the handshake with the downloaded file mapping.
// Subsequent Resolve or Fail calls are ignored.
func (p *PendingFiles) Resolve(files map[string]string) {
	p.once.Do(func() {
		p.ch <- files
		close(p.ch)
	})
}

// Fail completes the handshake as a failure
func (p *PendingFiles) Fail() {
	p.once.Do(func() {
		close(p.ch)
	})
}

// Await blocks until the handshake completes and returns the mapping. A
// failed or dropped handshake returns an error.
func (p *PendingFiles) Await() (map[string]string, error) {
	files, ok := <-p.ch
	if !ok {
		return nil, errs.New(errs.ErrorTypeNetwork, "file batch was not materialized")
	}
	return files, nil
}
