package client

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// StreamRefreshInterval matches the server's playback URL lifetime.
const StreamRefreshInterval = 7200 * time.Second

// URLRefresher keeps a presigned URL current by refetching it on a fixed
// timer. A failed refresh keeps the previous URL, even once it has expired.
type URLRefresher struct {
	fetch    func(ctx context.Context) (*SignedURL, error)
	interval time.Duration
	logger   logrus.FieldLogger
	onChange func(*SignedURL)

	mu      sync.RWMutex
	current *SignedURL
}

func NewURLRefresher(fetch func(ctx context.Context) (*SignedURL, error), interval time.Duration, logger logrus.FieldLogger, onChange func(*SignedURL)) *URLRefresher {
	if interval <= 0 {
		interval = StreamRefreshInterval
	}
	return &URLRefresher{fetch: fetch, interval: interval, logger: logger, onChange: onChange}
}

// Current returns the latest URL, or nil before the first successful fetch.
func (r *URLRefresher) Current() *SignedURL {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Run fetches the URL once, returning that error if it fails, then refreshes
// it every interval until ctx is done.
func (r *URLRefresher) Run(ctx context.Context) error {
	if err := r.refresh(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.WithError(err).Warn("Failed to refresh URL, keeping the previous one")
			}
		}
	}
}

func (r *URLRefresher) refresh(ctx context.Context) error {
	signed, err := r.fetch(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.current = signed
	r.mu.Unlock()

	if r.onChange != nil {
		r.onChange(signed)
	}
	return nil
}
