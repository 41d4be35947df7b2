package source

import (
	"context"

	verrors "github.com/FocuswithJustin/versemem/core/errors"
	"github.com/FocuswithJustin/versemem/internal/logging"
)

// Status is the state of one source in a download batch.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Progress is reported for each state change during Download.
type Progress struct {
	SourceID string `json:"source_id"`
	Percent  int    `json:"percent"`
	Status   Status `json:"status"`
	Error    string `json:"error,omitempty"`
}

// CachingProvider serves sources from a Store and falls back to an upstream
// provider, saving what it fetches.
type CachingProvider struct {
	store    *Store
	upstream Provider
}

// NewCachingProvider creates a provider over store and upstream.
func NewCachingProvider(store *Store, upstream Provider) *CachingProvider {
	return &CachingProvider{store: store, upstream: upstream}
}

// Store returns the backing store.
func (p *CachingProvider) Store() *Store {
	return p.store
}

// Fetch returns the stored text or downloads it. A downloaded text that the
// store rejects is still returned.
func (p *CachingProvider) Fetch(ctx context.Context, sourceID string) (string, error) {
	text, err := p.store.Load(ctx, sourceID)
	if err == nil {
		logging.SourceFetch(ctx, sourceID, p.store.Path(), len(text))
		return text, nil
	}
	if !verrors.Is(err, verrors.ErrNotFound) {
		logging.SourceError(ctx, sourceID, "load", err)
	}

	text, err = p.upstream.Fetch(ctx, sourceID)
	if err != nil {
		logging.SourceError(ctx, sourceID, "fetch", err)
		return "", err
	}
	logging.SourceFetch(ctx, sourceID, "upstream", len(text))

	if _, err := p.store.Save(ctx, sourceID, text); err != nil {
		logging.SourceError(ctx, sourceID, "save", err)
	}
	return text, nil
}

// Download fetches each id from upstream and saves it, replacing stored
// copies. It stops at the first failure and returns it.
func (p *CachingProvider) Download(ctx context.Context, ids []string, progress func(Progress)) error {
	report := func(pr Progress) {
		if progress != nil {
			progress(pr)
		}
	}

	for _, id := range ids {
		report(Progress{SourceID: id, Status: StatusPending})
	}

	for _, id := range ids {
		report(Progress{SourceID: id, Percent: 0, Status: StatusDownloading})

		text, err := p.upstream.Fetch(ctx, id)
		if err == nil {
			report(Progress{SourceID: id, Percent: 50, Status: StatusDownloading})
			_, err = p.store.Save(ctx, id, text)
		}
		if err != nil {
			logging.SourceError(ctx, id, "download", err)
			report(Progress{SourceID: id, Percent: 0, Status: StatusFailed, Error: err.Error()})
			return err
		}

		logging.SourceFetch(ctx, id, "download", len(text))
		report(Progress{SourceID: id, Percent: 100, Status: StatusCompleted})
	}
	return nil
}
