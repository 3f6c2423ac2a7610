package handlers

import (
	"net/http"
	"strings"

	"github.com/JayRKay91/photo-share-app-v3/internal/logging"

	"github.com/gorilla/mux"
)

// AddTag attaches a tag to a stored file. Adding a tag the file already
// carries (case-insensitively) is a reported no-op.
func (h *Handlers) AddTag(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	if !safeName(name) || !h.fileExists(name) {
		h.flash(w, r, "%s not found.", name)
		redirectHome(w, r)
		return
	}

	tag := strings.TrimSpace(r.FormValue("tag"))
	if tag == "" {
		h.flash(w, r, "Empty tag not added.")
		redirectHome(w, r)
		return
	}

	added, err := h.store.AddTag(name, tag)
	if err != nil {
		logging.Error("add tag: %v", err)
		h.flash(w, r, "Failed to save tag.")
	} else if added {
		h.flash(w, r, "Tag '%s' added.", tag)
	} else {
		h.flash(w, r, "Tag '%s' already exists.", tag)
	}
	redirectHome(w, r)
}

// RemoveTag strips a tag from a stored file, case-insensitively.
func (h *Handlers) RemoveTag(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name, tag := vars["filename"], vars["tag"]
	if !safeName(name) {
		h.flash(w, r, "%s not found.", name)
		redirectHome(w, r)
		return
	}

	if err := h.store.RemoveTag(name, tag); err != nil {
		logging.Error("remove tag: %v", err)
		h.flash(w, r, "Failed to remove tag.")
	} else {
		h.flash(w, r, "Tag '%s' removed.", tag)
	}
	redirectHome(w, r)
}

// RenameTagSingle renames a tag on one file.
func (h *Handlers) RenameTagSingle(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("filename")
	oldTag := strings.TrimSpace(r.FormValue("old_tag"))
	newTag := strings.TrimSpace(r.FormValue("new_tag"))

	if name == "" || oldTag == "" || newTag == "" {
		h.flash(w, r, "Missing tag rename data.")
		redirectHome(w, r)
		return
	}
	if !safeName(name) {
		h.flash(w, r, "%s not found.", name)
		redirectHome(w, r)
		return
	}

	renamed, err := h.store.RenameTag(name, oldTag, newTag)
	if err != nil {
		logging.Error("rename tag: %v", err)
		h.flash(w, r, "Failed to rename tag.")
	} else if renamed {
		h.flash(w, r, "Renamed tag '%s' to '%s' for %s.", oldTag, newTag, name)
	} else {
		h.flash(w, r, "No tag '%s' on %s.", oldTag, name)
	}
	redirectHome(w, r)
}

// RenameTagGlobal renames a tag across every file that carries it.
func (h *Handlers) RenameTagGlobal(w http.ResponseWriter, r *http.Request) {
	oldTag := strings.TrimSpace(r.FormValue("old_tag"))
	newTag := strings.TrimSpace(r.FormValue("new_tag"))

	if oldTag == "" || newTag == "" {
		h.flash(w, r, "Missing tag rename data.")
		redirectHome(w, r)
		return
	}

	updated, err := h.store.RenameTagAll(oldTag, newTag)
	if err != nil {
		logging.Error("rename tag globally: %v", err)
		h.flash(w, r, "Failed to rename tag.")
	} else if updated > 0 {
		h.flash(w, r, "Renamed '%s' to '%s' globally.", oldTag, newTag)
	} else {
		h.flash(w, r, "No matches found for '%s'.", oldTag)
	}
	redirectHome(w, r)
}
