package client

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"videothingy/vault/internal/worker"
	"videothingy/vault/models"
)

// UploadConcurrency is the number of files sent in parallel.
const UploadConcurrency = 4

// Progress is one progress event for a single file. Rate and ETA come from
// the last two events only, with no smoothing.
type Progress struct {
	File        string
	Sent        int64
	Total       int64
	Percent     float64
	BytesPerSec float64
	ETA         time.Duration
}

// progressTracker turns raw byte counts into Progress events for one file.
type progressTracker struct {
	file     string
	lastSent int64
	lastAt   time.Time
	rate     float64
}

func newProgressTracker(file string, start time.Time) *progressTracker {
	return &progressTracker{file: file, lastAt: start}
}

func (t *progressTracker) update(sent, total int64, now time.Time) Progress {
	p := Progress{File: t.file, Sent: sent, Total: total}
	if total > 0 {
		p.Percent = float64(sent) / float64(total) * 100
	}

	if dt := now.Sub(t.lastAt).Seconds(); dt > 0 {
		t.rate = float64(sent-t.lastSent) / dt
		t.lastSent = sent
		t.lastAt = now
	}
	p.BytesPerSec = t.rate
	if t.rate > 0 {
		p.ETA = time.Duration(float64(total-sent) / t.rate * float64(time.Second))
	}
	return p
}

// UploadOutcome is the result of uploading one file.
type UploadOutcome struct {
	File   string
	Videos []models.Video
	Err    error
}

// Uploader sends files to a folder through a fixed-size worker pool, one
// request per file.
type Uploader struct {
	API     *API
	Workers int
	// OnProgress may be called from several workers at once.
	OnProgress func(Progress)
	Logger     logrus.FieldLogger

	now     func() time.Time
	mu      sync.Mutex
	pending []string
}

func NewUploader(api *API, logger logrus.FieldLogger, onProgress func(Progress)) *Uploader {
	return &Uploader{
		API:        api,
		Workers:    UploadConcurrency,
		OnProgress: onProgress,
		Logger:     logger,
		now:        time.Now,
	}
}

// Pending lists the files not yet finished.
func (u *Uploader) Pending() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return slices.Clone(u.pending)
}

func (u *Uploader) done(path string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending = slices.DeleteFunc(u.pending, func(p string) bool { return p == path })
}

// Upload sends every path into folderID and returns one outcome per path,
// in input order, once all workers have stopped.
func (u *Uploader) Upload(ctx context.Context, folderID string, paths []string) []UploadOutcome {
	u.mu.Lock()
	u.pending = slices.Clone(paths)
	u.mu.Unlock()

	outcomes := make([]UploadOutcome, len(paths))
	pool := worker.NewPool(u.Workers, len(paths), u.Logger)
	pool.Start(ctx)
	for i, path := range paths {
		job := &uploadJob{uploader: u, folderID: folderID, path: path, outcome: &outcomes[i]}
		if err := pool.Submit(job); err != nil {
			outcomes[i] = UploadOutcome{File: path, Err: err}
		}
	}
	results := pool.Drain()
	u.Logger.Debugf("%d uploads finished", len(results))

	// Jobs skipped after cancellation never filled their outcome.
	for i := range outcomes {
		if outcomes[i].File == "" {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			outcomes[i] = UploadOutcome{File: paths[i], Err: err}
		}
	}
	return outcomes
}

type uploadJob struct {
	uploader *Uploader
	folderID string
	path     string
	outcome  *UploadOutcome
}

func (j *uploadJob) ID() string { return j.path }

func (j *uploadJob) Execute(ctx context.Context) error {
	u := j.uploader
	defer u.done(j.path)

	tracker := newProgressTracker(filepath.Base(j.path), u.now())
	var report func(sent, total int64)
	if u.OnProgress != nil {
		report = func(sent, total int64) {
			u.OnProgress(tracker.update(sent, total, u.now()))
		}
	}

	videos, err := u.API.UploadFile(ctx, j.folderID, j.path, report)
	*j.outcome = UploadOutcome{File: j.path, Videos: videos, Err: err}
	return err
}
