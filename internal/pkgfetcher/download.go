package pkgfetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
)

const copyBufferSize = 1 << 20

// runTask drives one task through the attempt loop. The task's state and
// error are final when this returns.
func (f *Fetcher) runTask(ctx context.Context, task *Task, tempDir string) {
	log := logger.Logger()
	task.State = StateInFlight

	if satisfied, size := f.alreadySatisfied(ctx, task); satisfied {
		log.Infof("skipping %s: already on disk (%d bytes)", filepath.Base(task.Dest), size)
		task.Skipped = true
		task.State = StateSucceeded
		return
	}

	var lastErr error
	for attempt := 1; attempt <= f.opts.Attempts; attempt++ {
		if attempt > 1 {
			task.State = StateRetrying
			// Linear backoff: delay grows with the attempt number, never
			// shrinks between attempts.
			delay := time.Duration(attempt-1) * f.opts.RetryDelay
			log.Warnf("retrying %s in %s (attempt %d/%d)", task.URL, delay, attempt, f.opts.Attempts)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				task.State = StateFailed
				task.Err = ctx.Err()
				return
			}
			task.State = StateInFlight
		}
		task.Attempts = attempt
		if err := f.downloadAttempt(ctx, task, tempDir); err != nil {
			lastErr = err
			log.Errorf("download attempt %d for %s failed: %v", attempt, task.URL, err)
			continue
		}
		log.Infof("downloaded %s", filepath.Base(task.Dest))
		task.State = StateSucceeded
		return
	}
	task.State = StateFailed
	task.Err = fmt.Errorf("download failed after %d attempts: %w", f.opts.Attempts, lastErr)
}

// alreadySatisfied checks whether the destination file exists with exactly
// the remote Content-Length, the idempotent-resume bar for a batch re-run.
func (f *Fetcher) alreadySatisfied(ctx context.Context, task *Task) (bool, int64) {
	info, err := os.Stat(task.Dest)
	if err != nil || info.Size() == 0 {
		return false, 0
	}
	headCtx, cancel := context.WithTimeout(ctx, f.opts.Watchdog)
	defer cancel()
	req, err := http.NewRequestWithContext(headCtx, http.MethodHead, task.URL, nil)
	if err != nil {
		return false, 0
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return false, 0
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, 0
	}
	remoteSize, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil || remoteSize <= 0 {
		return false, 0
	}
	return info.Size() == remoteSize, info.Size()
}

// downloadAttempt performs one bounded transfer into a temp file and moves
// it into place once the size check passes.
func (f *Fetcher) downloadAttempt(ctx context.Context, task *Task, tempDir string) error {
	attemptCtx, cancel := context.WithTimeout(ctx, f.opts.Watchdog)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, task.URL, nil)
	if err != nil {
		return fmt.Errorf("building GET request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing GET request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	// A random temp name keeps concurrent tasks from clobbering each
	// other's partial files when their URLs share a basename.
	tempPath := filepath.Join(tempDir, uuid.NewString()+".part")
	outFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	written, err := io.CopyBuffer(outFile, resp.Body, make([]byte, copyBufferSize))
	if closeErr := outFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("writing %s: %w", tempPath, err)
	}
	if written == 0 {
		os.Remove(tempPath)
		return fmt.Errorf("empty response body for %s", task.URL)
	}
	if err := f.opts.Checksums.VerifyFile(tempPath, filepath.Base(task.Dest)); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, task.Dest); err != nil {
		return fmt.Errorf("finalizing %s: %w", task.Dest, err)
	}
	return nil
}
