package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JayRKay91/photo-share-app-v3/internal/logging"
	"github.com/JayRKay91/photo-share-app-v3/internal/media"
	"github.com/JayRKay91/photo-share-app-v3/internal/mediatypes"
	"github.com/JayRKay91/photo-share-app-v3/internal/metrics"
	"github.com/JayRKay91/photo-share-app-v3/internal/store"
)

// NormalizeFunc converts raw upload bytes of a to-be-normalized format
// into JPEG bytes.
type NormalizeFunc func(data []byte) ([]byte, error)

// ThumbnailFunc derives a still image from a stored video.
type ThumbnailFunc func(videoPath, thumbPath string) error

// File is one incoming upload: the client-supplied name (used only for
// classification, never for storage) and the content stream.
type File struct {
	Name    string
	Content io.Reader
}

// Stored describes one successfully stored file.
type Stored struct {
	// Name is the server-generated storage filename.
	Name string
	// Original is the client-supplied filename.
	Original string
	// Kind is the media classification of the stored file.
	Kind mediatypes.Kind
	// Normalized is true when the file was transcoded before storage.
	Normalized bool
}

// Failure records a recoverable per-file processing error.
type Failure struct {
	// Name is the client-supplied filename the failure applies to.
	Name string
	// Stage identifies the pipeline step that failed.
	Stage string
	// Err is the underlying error.
	Err error
}

// Failure stages.
const (
	StageNormalize = "normalize"
	StageStore     = "store"
	StageThumbnail = "thumbnail"
)

// Result summarizes one processed batch. A batch is not atomic: some
// files can succeed while others fail or are skipped.
type Result struct {
	Stored   []Stored
	Skipped  []string
	Failures []Failure
	// SaveErr is set when the batch-level metadata save failed; files
	// already written remain on disk and are repaired by the
	// reconciliation pass.
	SaveErr error
}

// Pipeline orchestrates classification, identity assignment,
// normalization, thumbnailing and the batch-level metadata save for
// incoming uploads.
type Pipeline struct {
	store     *store.Store
	uploadDir string
	thumbDir  string
	normalize NormalizeFunc
	thumbnail ThumbnailFunc
}

// New creates an upload pipeline writing media to uploadDir and derived
// stills to thumbDir. The normalize and thumbnail steps are injected so
// the orchestration can be exercised without codec tooling.
func New(st *store.Store, uploadDir, thumbDir string, normalize NormalizeFunc, thumbnail ThumbnailFunc) (*Pipeline, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbnail dir: %w", err)
	}
	return &Pipeline{
		store:     st,
		uploadDir: uploadDir,
		thumbDir:  thumbDir,
		normalize: normalize,
		thumbnail: thumbnail,
	}, nil
}

// Process handles one upload batch. Files are processed in order with
// per-file failure isolation; the four metadata documents are persisted
// exactly once after the whole batch.
func (p *Pipeline) Process(files []File, album string) Result {
	var result Result
	var entries []store.Entry

	for _, f := range files {
		format, ok := mediatypes.Lookup(f.Name)
		if !ok {
			logging.Debug("upload: skipping disallowed file %q", f.Name)
			result.Skipped = append(result.Skipped, f.Name)
			metrics.UploadsTotal.WithLabelValues("skipped").Inc()
			continue
		}

		stored, failure := p.processOne(f, format)
		if failure != nil {
			result.Failures = append(result.Failures, *failure)
			metrics.UploadsTotal.WithLabelValues("failed").Inc()
			continue
		}

		result.Stored = append(result.Stored, *stored)
		entries = append(entries, store.Entry{Name: stored.Name, Album: album})
		metrics.UploadsTotal.WithLabelValues("stored").Inc()

		// Thumbnail derivation happens after the file is committed to
		// disk; a generator failure never unwinds the upload itself.
		if format.Thumbnail {
			thumbPath := filepath.Join(p.thumbDir, media.Stem(stored.Name)+".jpg")
			if err := p.thumbnail(filepath.Join(p.uploadDir, stored.Name), thumbPath); err != nil {
				logging.Warn("upload: thumbnail generation failed for %s: %v", stored.Name, err)
				result.Failures = append(result.Failures, Failure{Name: f.Name, Stage: StageThumbnail, Err: err})
				metrics.ThumbnailsTotal.WithLabelValues("failed").Inc()
			} else {
				metrics.ThumbnailsTotal.WithLabelValues("generated").Inc()
			}
		}
	}

	if err := p.store.AddBatch(entries); err != nil {
		logging.Error("upload: batch metadata save failed: %v", err)
		result.SaveErr = err
	}

	return result
}

// processOne stores a single upload under a fresh identity, routing it
// through the normalizer when the format requires it.
func (p *Pipeline) processOne(f File, format mediatypes.Format) (*Stored, *Failure) {
	name := media.NewStoredName(mediatypes.Ext(f.Name))

	if format.Normalize {
		data, err := io.ReadAll(f.Content)
		if err != nil {
			return nil, &Failure{Name: f.Name, Stage: StageStore, Err: err}
		}
		converted, err := p.normalize(data)
		if err != nil {
			return nil, &Failure{Name: f.Name, Stage: StageNormalize, Err: err}
		}
		// The output format changed, so the provisional identity is
		// abandoned for one with the new extension.
		name = media.NewStoredName(".jpg")
		if err := os.WriteFile(filepath.Join(p.uploadDir, name), converted, 0o644); err != nil {
			return nil, &Failure{Name: f.Name, Stage: StageStore, Err: err}
		}
		logging.Info("upload: converted %q to %s", f.Name, name)
		return &Stored{Name: name, Original: f.Name, Kind: format.Kind, Normalized: true}, nil
	}

	path := filepath.Join(p.uploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return nil, &Failure{Name: f.Name, Stage: StageStore, Err: err}
	}
	if _, err := io.Copy(dst, f.Content); err != nil {
		dst.Close()
		if rmErr := os.Remove(path); rmErr != nil {
			logging.Warn("upload: failed to remove partial file %s: %v", path, rmErr)
		}
		return nil, &Failure{Name: f.Name, Stage: StageStore, Err: err}
	}
	if err := dst.Close(); err != nil {
		return nil, &Failure{Name: f.Name, Stage: StageStore, Err: err}
	}

	logging.Debug("upload: stored %q as %s", f.Name, name)
	return &Stored{Name: name, Original: f.Name, Kind: format.Kind}, nil
}
