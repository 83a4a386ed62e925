package pkgfetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/wildanadt/RTA-WRT/internal/pkgresolver"
	"github.com/wildanadt/RTA-WRT/internal/utils/logger"
	"github.com/wildanadt/RTA-WRT/internal/utils/network"
)

// ErrNothingResolved means a non-empty request list produced zero download
// tasks, so the batch could not even start.
var ErrNothingResolved = errors.New("no requests resolved to download URLs")

// Options carry the fetch policy. Zero values take the documented defaults.
type Options struct {
	Workers        int           // simultaneous transfers (default 4)
	Attempts       int           // per-URL attempt cap (default 3)
	RetryDelay     time.Duration // base delay, grows linearly per attempt (default 2s)
	ConnectTimeout time.Duration // dial timeout (default 30s)
	Watchdog       time.Duration // per-attempt overall deadline (default 60s)
	Progress       bool          // render a progress bar
	Checksums      ChecksumSet   // optional sha256 constraints per filename
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Attempts <= 0 {
		o.Attempts = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * time.Second
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 30 * time.Second
	}
	if o.Watchdog <= 0 {
		o.Watchdog = 60 * time.Second
	}
	return o
}

// Result summarizes one batch. Every original request appears exactly once
// across the reports, whatever order tasks completed in.
type Result struct {
	Requested  int
	Downloaded int
	Reports    []Report
}

// Complete reports whether every requested package is verified on disk.
func (r *Result) Complete() bool { return r.Downloaded == r.Requested }

// Summary renders the human-readable batch outcome line.
func (r *Result) Summary() string {
	return fmt.Sprintf("Successfully downloaded %d/%d packages", r.Downloaded, r.Requested)
}

// Fetcher downloads resolved package batches with bounded concurrency.
type Fetcher struct {
	opts   Options
	client *http.Client
}

// New builds a fetcher. The HTTP client carries only the dial timeout;
// the per-attempt watchdog is enforced with a context so large files are
// not cut off mid-stream by a blanket client timeout.
func New(opts Options) *Fetcher {
	opts = opts.withDefaults()
	return &Fetcher{
		opts:   opts,
		client: network.NewTransferClient(0, opts.ConnectTimeout),
	}
}

// NewWithClient is New with an injected HTTP client, for tests.
func NewWithClient(opts Options, client *http.Client) *Fetcher {
	f := New(opts)
	if client != nil {
		f.client = client
	}
	return f
}

// Fetch downloads every resolved entry of the batch into destDir and
// reports how many of the original requests ended up as verified files.
// It returns an error only when the batch cannot start; per-task failures
// surface in the Result.
func (f *Fetcher) Fetch(ctx context.Context, batch []pkgresolver.ResolvedPackage, destDir string) (*Result, error) {
	log := logger.Logger()
	result := &Result{
		Requested: len(batch),
		Reports:   make([]Report, len(batch)),
	}
	if len(batch) == 0 {
		return result, nil
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("creating destination directory %s: %w", destDir, err)
	}

	tasks := make([]*Task, len(batch))
	pending := 0
	nameTaken := make(map[string]int, len(batch))
	for i, entry := range batch {
		task := &Task{Request: entry.Request, URL: entry.DownloadURL}
		if !entry.Resolved() {
			task.State = StateFailed
			task.Err = fmt.Errorf("unresolved: no download URL for %q", entry.Request.NameFragment)
		} else {
			name := path.Base(entry.DownloadURL)
			// Two URLs can share a basename; writing both to one path
			// would silently drop a package, so number the later ones.
			// Batch order is stable, so reruns pick the same names.
			if n := nameTaken[name]; n > 0 {
				ext := path.Ext(name)
				numbered := fmt.Sprintf("%s.%d%s", strings.TrimSuffix(name, ext), n, ext)
				log.Warnf("destination %s already taken in this batch, saving %s as %s", name, task.URL, numbered)
				nameTaken[name]++
				name = numbered
			} else {
				nameTaken[name] = 1
			}
			task.Dest = filepath.Join(destDir, name)
			pending++
		}
		tasks[i] = task
	}
	if pending == 0 {
		for i, task := range tasks {
			result.Reports[i] = task.report()
		}
		return result, ErrNothingResolved
	}

	tempDir := filepath.Join(destDir, ".fetch-"+uuid.NewString())
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	var bar *progressbar.ProgressBar
	if f.opts.Progress {
		bar = progressbar.NewOptions(pending,
			progressbar.OptionFullWidth(),
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}

	// Fixed worker pool over a buffered index channel; the counter is the
	// only cross-worker state and stays atomic.
	indexCh := make(chan int, pending)
	for i, task := range tasks {
		if task.State == StatePending {
			indexCh <- i
		}
	}
	close(indexCh)

	var downloaded atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < f.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexCh {
				task := tasks[i]
				f.runTask(ctx, task, tempDir)
				if task.State == StateSucceeded {
					downloaded.Add(1)
					logger.GlobalQueueReport.Append(fmt.Sprintf("%s -> %s", task.Request.NameFragment, task.URL))
				}
				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	if bar != nil {
		bar.Finish()
	}

	result.Downloaded = int(downloaded.Load())
	for i, task := range tasks {
		result.Reports[i] = task.report()
	}
	if result.Complete() {
		log.Info(result.Summary())
	} else {
		log.Warnf("%s (%d failed)", result.Summary(), result.Requested-result.Downloaded)
	}
	return result, nil
}
