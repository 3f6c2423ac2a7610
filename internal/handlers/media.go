package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JayRKay91/photo-share-app-v3/internal/logging"
	"github.com/JayRKay91/photo-share-app-v3/internal/media"
	"github.com/JayRKay91/photo-share-app-v3/internal/mediatypes"

	"github.com/gorilla/mux"
)

// Delete removes a stored file, its derived thumbnail, and its entries
// in all four metadata documents. Deleting an absent filename reports
// "not found" and leaves the documents untouched, so the operation is
// idempotent in its user-visible effect.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	if !safeName(name) {
		h.flash(w, r, "%s not found.", name)
		redirectHome(w, r)
		return
	}

	path := filepath.Join(h.uploadDir, name)
	if _, err := os.Stat(path); err != nil {
		h.flash(w, r, "%s not found.", name)
		redirectHome(w, r)
		return
	}

	if err := os.Remove(path); err != nil {
		logging.Error("delete %s: %v", name, err)
		h.flash(w, r, "Failed to delete %s.", name)
		redirectHome(w, r)
		return
	}

	thumbPath := filepath.Join(h.thumbDir, media.Stem(name)+".jpg")
	if err := os.Remove(thumbPath); err != nil && !os.IsNotExist(err) {
		logging.Warn("delete thumbnail %s: %v", thumbPath, err)
	}

	if err := h.store.Remove(name); err != nil {
		logging.Error("delete metadata for %s: %v", name, err)
	}

	h.flash(w, r, "%s deleted.", name)
	redirectHome(w, r)
}

// Download serves a stored file as an attachment.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	if !safeName(name) {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(filepath.Join(h.uploadDir, name))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("download: close %s: %v", name, err)
		}
	}()

	w.Header().Set("Content-Type", mediatypes.MimeOf(name))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, time.Time{}, f)
}

// UpdateDescription replaces the free-text description of a file.
func (h *Handlers) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	if !safeName(name) || !h.fileExists(name) {
		h.flash(w, r, "%s not found.", name)
		redirectHome(w, r)
		return
	}

	if err := h.store.SetDescription(name, r.FormValue("description")); err != nil {
		logging.Error("update description: %v", err)
		h.flash(w, r, "Failed to update description.")
	} else {
		h.flash(w, r, "Description updated.")
	}
	redirectHome(w, r)
}

// AddComment appends a comment to a file. Comments are append-only.
func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	if !safeName(name) || !h.fileExists(name) {
		h.flash(w, r, "%s not found.", name)
		redirectHome(w, r)
		return
	}

	comment := strings.TrimSpace(r.FormValue("comment"))
	if comment == "" {
		h.flash(w, r, "Empty comment not added.")
		redirectHome(w, r)
		return
	}

	if err := h.store.AddComment(name, comment); err != nil {
		logging.Error("add comment: %v", err)
		h.flash(w, r, "Failed to add comment.")
	} else {
		h.flash(w, r, "Comment added.")
	}
	redirectHome(w, r)
}
