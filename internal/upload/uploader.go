// Package upload streams media from the messenger into blob storage.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/mediabot/core/logger"
)

const defaultProgressInterval = 10 * time.Millisecond

// BlobStore is the object storage the uploader writes into.
type BlobStore interface {
	// NewWriter opens a sink for path. Closing it commits the object;
	// cancelling ctx before Close aborts the write.
	NewWriter(ctx context.Context, path string) (io.WriteCloser, error)
	MakePublic(ctx context.Context, path string) error
	PublicURL(path string) string
}

// Job describes one upload. Open is called from the uploading goroutine.
type Job struct {
	Path string
	// Size is the expected byte count; zero disables percentage reporting.
	Size int64
	Open func(ctx context.Context) (io.ReadCloser, error)
}

// Error reports a failed upload of Path.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code feeds the err_code log field.
func (e *Error) Code() string { return "upload_error" }

// Options tunes the uploader.
type Options struct {
	// ProgressInterval is how often transferred bytes are sampled.
	ProgressInterval time.Duration
}

// Uploader streams jobs into a BlobStore.
type Uploader struct {
	blobs    BlobStore
	interval time.Duration
}

// New returns an Uploader writing into blobs.
func New(blobs BlobStore, opts Options) *Uploader {
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = defaultProgressInterval
	}
	return &Uploader{blobs: blobs, interval: interval}
}

// Upload streams the job's source into storage, makes it public and returns its URL.
func (u *Uploader) Upload(ctx context.Context, job Job) (string, error) {
	if job.Open == nil {
		return "", &Error{Path: job.Path, Err: errors.New("no source")}
	}
	start := time.Now()

	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	src, err := job.Open(writeCtx)
	if err != nil {
		return "", u.fail(ctx, job, start, fmt.Errorf("open source: %w", err))
	}
	defer src.Close()

	sink, err := u.blobs.NewWriter(writeCtx, job.Path)
	if err != nil {
		return "", u.fail(ctx, job, start, fmt.Errorf("open sink: %w", err))
	}

	counter := newProgressReader(src, job.Size)
	stop := u.track(ctx, job.Path, counter)
	_, copyErr := io.Copy(sink, counter)
	stop()

	if copyErr != nil {
		cancel()
		_ = sink.Close()
		return "", u.fail(ctx, job, start, copyErr)
	}
	if err := sink.Close(); err != nil {
		return "", u.fail(ctx, job, start, fmt.Errorf("commit: %w", err))
	}
	if err := u.blobs.MakePublic(ctx, job.Path); err != nil {
		return "", u.fail(ctx, job, start, fmt.Errorf("make public: %w", err))
	}

	url := u.blobs.PublicURL(job.Path)
	logger.Info(ctx, "upload", "upload.done",
		slog.String("status", "ok"),
		slog.String("path", job.Path),
		slog.Int64("bytes", counter.Transferred()),
		slog.Duration("duration", logger.Took(start)),
	)
	return url, nil
}

// UploadAll runs the jobs concurrently and returns their URLs in job order.
// The first failure cancels the remaining uploads and fails the whole call.
func (u *Uploader) UploadAll(ctx context.Context, jobs ...Job) ([]string, error) {
	urls := make([]string, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		g.Go(func() error {
			url, err := u.Upload(gctx, job)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func (u *Uploader) fail(ctx context.Context, job Job, start time.Time, err error) error {
	logger.Error(ctx, "upload", "upload.failed",
		slog.String("status", "fail"),
		slog.String("path", job.Path),
		slog.Duration("duration", logger.Took(start)),
		slog.String("err", err.Error()),
	)
	return &Error{Path: job.Path, Err: err}
}

// track samples the counter on a ticker until the returned stop func is called.
func (u *Uploader) track(ctx context.Context, path string, counter *progressReader) func() {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(u.interval)
		defer ticker.Stop()
		last := -1
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				pct, ok := counter.Percent()
				if !ok || pct == last {
					continue
				}
				last = pct
				if logger.ShouldSampleDebug() {
					logger.Debug(ctx, "upload", "upload.progress",
						slog.String("path", path),
						slog.Int("percent", pct),
						slog.Int64("bytes", counter.Transferred()),
					)
				}
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}
