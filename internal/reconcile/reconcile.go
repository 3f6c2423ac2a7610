package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/JayRKay91/photo-share-app-v3/internal/logging"
	"github.com/JayRKay91/photo-share-app-v3/internal/media"
	"github.com/JayRKay91/photo-share-app-v3/internal/mediatypes"
	"github.com/JayRKay91/photo-share-app-v3/internal/metrics"
	"github.com/JayRKay91/photo-share-app-v3/internal/store"
	"github.com/JayRKay91/photo-share-app-v3/internal/upload"
	"github.com/JayRKay91/photo-share-app-v3/internal/workers"
)

// maxThumbnailWorkers caps the regeneration pool regardless of CPU count.
const maxThumbnailWorkers = 4

// Stats summarizes one reconciliation pass.
type Stats struct {
	Files        int
	Pruned       int
	Adopted      int
	ThumbsBuilt  int
	ThumbsFailed int
}

// Reconciler repairs drift between the upload directory and the
// metadata documents: file writes and metadata saves are not
// transactional, so a crash can leave orphan files (on disk, no
// metadata) or dangling entries (metadata, no file). A pass runs at
// startup and then periodically.
type Reconciler struct {
	store     *store.Store
	uploadDir string
	thumbDir  string
	interval  time.Duration
	thumbnail upload.ThumbnailFunc

	stopOnce sync.Once
	stopChan chan struct{}

	mu      sync.Mutex
	running bool
	lastRun time.Time
	lastErr error
}

// New creates a reconciler. interval <= 0 disables the periodic loop;
// RunOnce can still be called directly.
func New(st *store.Store, uploadDir, thumbDir string, interval time.Duration, thumbnail upload.ThumbnailFunc) *Reconciler {
	return &Reconciler{
		store:     st,
		uploadDir: uploadDir,
		thumbDir:  thumbDir,
		interval:  interval,
		thumbnail: thumbnail,
		stopChan:  make(chan struct{}),
	}
}

// Start runs an immediate pass and then loops on the configured
// interval until Stop is called. Intended to run in its own goroutine.
func (r *Reconciler) Start() {
	if _, err := r.RunOnce(); err != nil {
		logging.Error("reconcile: initial pass failed: %v", err)
	}
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := r.RunOnce(); err != nil {
				logging.Error("reconcile: pass failed: %v", err)
			}
		case <-r.stopChan:
			return
		}
	}
}

// Stop terminates the periodic loop. Safe to call more than once.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
}

// LastRun returns the completion time and error of the most recent pass.
func (r *Reconciler) LastRun() (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun, r.lastErr
}

// RunOnce performs a single reconciliation pass. Overlapping passes are
// coalesced: a call while another pass runs returns immediately.
func (r *Reconciler) RunOnce() (Stats, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		logging.Debug("reconcile: pass already running, skipping")
		return Stats{}, nil
	}
	r.running = true
	r.mu.Unlock()

	start := time.Now()
	stats, err := r.pass()

	r.mu.Lock()
	r.running = false
	r.lastRun = time.Now()
	r.lastErr = err
	r.mu.Unlock()

	metrics.ReconcileRunsTotal.Inc()
	metrics.ReconcileDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		logging.Info("reconcile: pass complete in %v (%d files, %d pruned, %d adopted, %d thumbnails rebuilt, %d thumbnail failures)",
			time.Since(start).Round(time.Millisecond), stats.Files, stats.Pruned, stats.Adopted, stats.ThumbsBuilt, stats.ThumbsFailed)
	}
	return stats, err
}

func (r *Reconciler) pass() (Stats, error) {
	var stats Stats

	entries, err := os.ReadDir(r.uploadDir)
	if err != nil {
		return stats, fmt.Errorf("list upload dir: %w", err)
	}

	present := make(map[string]bool, len(entries))
	var images, videos float64
	var orphanCandidates []string
	var missingThumbs []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		present[name] = true
		stats.Files++

		switch mediatypes.KindOf(name) {
		case mediatypes.KindVideo:
			videos++
		default:
			images++
		}

		// Only recognized media formats are adopted; foreign files in
		// the directory are listed by the gallery with defaults but
		// never written into the documents.
		if mediatypes.Allowed(name) {
			orphanCandidates = append(orphanCandidates, name)
		}

		if format, ok := mediatypes.Lookup(name); ok && format.Thumbnail {
			thumbPath := filepath.Join(r.thumbDir, media.Stem(name)+".jpg")
			if _, err := os.Stat(thumbPath); os.IsNotExist(err) {
				missingThumbs = append(missingThumbs, name)
			}
		}
	}

	metrics.MediaFiles.WithLabelValues(string(mediatypes.KindImage)).Set(images)
	metrics.MediaFiles.WithLabelValues(string(mediatypes.KindVideo)).Set(videos)

	pruned, err := r.store.Prune(present)
	if err != nil {
		return stats, fmt.Errorf("prune dangling metadata: %w", err)
	}
	stats.Pruned = pruned
	metrics.ReconcilePrunedTotal.Add(float64(pruned))

	adopted, err := r.store.Adopt(orphanCandidates)
	if err != nil {
		return stats, fmt.Errorf("adopt orphan files: %w", err)
	}
	stats.Adopted = adopted
	metrics.ReconcileAdoptedTotal.Add(float64(adopted))

	built, failed := r.rebuildThumbnails(missingThumbs)
	stats.ThumbsBuilt = built
	stats.ThumbsFailed = failed

	return stats, nil
}

// rebuildThumbnails regenerates missing video stills using a bounded
// worker pool. Failures are logged and counted; a corrupt video simply
// stays thumbnail-less.
func (r *Reconciler) rebuildThumbnails(names []string) (built, failed int) {
	if len(names) == 0 || r.thumbnail == nil {
		return 0, 0
	}

	workerCount := workers.ForCPU(maxThumbnailWorkers)
	logging.Debug("reconcile: rebuilding %d thumbnails with %d workers", len(names), workerCount)

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				src := filepath.Join(r.uploadDir, name)
				dst := filepath.Join(r.thumbDir, media.Stem(name)+".jpg")
				err := r.thumbnail(src, dst)

				mu.Lock()
				if err != nil {
					failed++
					metrics.ThumbnailsTotal.WithLabelValues("failed").Inc()
					logging.Warn("reconcile: thumbnail for %s: %v", name, err)
				} else {
					built++
					metrics.ThumbnailsTotal.WithLabelValues("generated").Inc()
				}
				mu.Unlock()
			}
		}()
	}

	for _, name := range names {
		jobs <- name
	}
	close(jobs)
	wg.Wait()

	return built, failed
}
