package handlers

import (
	"net/http"
	"net/url"

	"github.com/JayRKay91/photo-share-app-v3/internal/gallery"
	"github.com/JayRKay91/photo-share-app-v3/internal/logging"

	"github.com/gorilla/mux"
)

// galleryPage is the template data for the gallery view.
type galleryPage struct {
	Items       []gallery.Item
	AllTags     []string
	CurrentTag  string
	SearchQuery string
	Flashes     []string
}

// Gallery renders the filtered media listing.
func (h *Handlers) Gallery(w http.ResponseWriter, r *http.Request) {
	q := gallery.Query{
		Tag:    r.URL.Query().Get("tag"),
		Search: r.URL.Query().Get("search"),
	}

	listing, err := gallery.Build(h.uploadDir, h.store.Snapshot(), q)
	if err != nil {
		logging.Error("gallery listing: %v", err)
		http.Error(w, "Failed to list gallery", http.StatusInternalServerError)
		return
	}

	h.render(w, "gallery.html", galleryPage{
		Items:       listing.Items,
		AllTags:     listing.AllTags,
		CurrentTag:  q.Tag,
		SearchQuery: q.Search,
		Flashes:     h.takeFlashes(w, r),
	})
}

// FilterByTag redirects a tag link to the filtered gallery view.
func (h *Handlers) FilterByTag(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tagname"]
	http.Redirect(w, r, "/?tag="+url.QueryEscape(tag), http.StatusSeeOther)
}
