package handlers

import (
	"net/http"

	"github.com/JayRKay91/photo-share-app-v3/internal/logging"
	"github.com/JayRKay91/photo-share-app-v3/internal/upload"
)

// uploadPage is the template data for the upload form.
type uploadPage struct {
	Flashes []string
}

// UploadForm renders the upload page.
func (h *Handlers) UploadForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "upload.html", uploadPage{Flashes: h.takeFlashes(w, r)})
}

// Upload accepts a multipart batch of media files plus an optional
// album label and runs it through the pipeline. Per-file failures are
// reported as flash messages; sibling files in the batch still land.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logging.Warn("upload: parse multipart form: %v", err)
		h.flash(w, r, "Upload too large or malformed.")
		redirectHome(w, r)
		return
	}

	album := r.FormValue("album")
	headers := r.MultipartForm.File["photos"]

	var files []upload.File
	var closers []func() error
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			logging.Warn("upload: open %q: %v", fh.Filename, err)
			h.flash(w, r, "Could not read %s.", fh.Filename)
			continue
		}
		closers = append(closers, f.Close)
		files = append(files, upload.File{Name: fh.Filename, Content: f})
	}
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logging.Debug("upload: close part: %v", err)
			}
		}
	}()

	result := h.pipeline.Process(files, album)

	for _, failure := range result.Failures {
		switch failure.Stage {
		case upload.StageNormalize:
			h.flash(w, r, "HEIC conversion failed: %v", failure.Err)
		case upload.StageThumbnail:
			h.flash(w, r, "Thumbnail generation failed: %v", failure.Err)
		default:
			h.flash(w, r, "Upload of %s failed: %v", failure.Name, failure.Err)
		}
	}
	for _, s := range result.Stored {
		if s.Normalized {
			h.flash(w, r, "HEIC image converted and uploaded.")
		}
	}
	if result.SaveErr != nil {
		h.flash(w, r, "Saving metadata failed; files will be reconciled.")
	}

	h.flash(w, r, "Upload successful.")
	redirectHome(w, r)
}
