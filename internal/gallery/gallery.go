package gallery

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/JayRKay91/photo-share-app-v3/internal/logging"
	"github.com/JayRKay91/photo-share-app-v3/internal/media"
	"github.com/JayRKay91/photo-share-app-v3/internal/mediatypes"
	"github.com/JayRKay91/photo-share-app-v3/internal/store"
)

// Item is one display record in the gallery listing.
type Item struct {
	Filename    string
	Description string
	Album       string
	Comments    []string
	Tags        []string
	Kind        mediatypes.Kind
	// Thumb is the reference path of the derived still for videos
	// (thumbnails/<stem>.jpg). It is not existence-checked; the page
	// tolerates a missing file.
	Thumb string
	// Width and Height are best-effort header-probed pixel dimensions
	// for images, zero when unknown.
	Width  int
	Height int

	ModTime time.Time
}

// Query carries the optional gallery filters.
type Query struct {
	// Tag filters to files carrying the tag, case-insensitively.
	Tag string
	// Search keeps files whose filename, description, album or any tag
	// contains the string, case-insensitively. Combined with Tag as a
	// logical AND.
	Search string
}

// Listing is the display-ready result: items ordered most recent first
// plus the global tag vocabulary for the filter UI.
type Listing struct {
	Items []Item
	// AllTags is the case-sensitive union of every stored tag across
	// all files (not just the filtered ones), sorted case-insensitively.
	AllTags []string
}

// Build reads the upload directory and the metadata snapshot and
// produces the filtered, ordered listing. The file system listing is
// authoritative: metadata entries without a backing file never surface,
// and files without metadata get default values.
func Build(uploadDir string, snap store.Snapshot, q Query) (Listing, error) {
	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		return Listing{}, fmt.Errorf("list upload dir: %w", err)
	}

	type fileInfo struct {
		name    string
		modTime time.Time
	}
	files := make([]fileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			logging.Warn("gallery: stat %s: %v", e.Name(), err)
			continue
		}
		files = append(files, fileInfo{name: e.Name(), modTime: info.ModTime()})
	}

	// Most recent first; ties keep directory order.
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	listing := Listing{AllTags: vocabulary(snap.Tags)}

	for _, f := range files {
		tags := snap.Tags[f.name]
		if q.Tag != "" && !containsTagFold(tags, q.Tag) {
			continue
		}

		item := Item{
			Filename:    f.name,
			Description: snap.Descriptions[f.name],
			Album:       snap.Albums[f.name],
			Comments:    snap.Comments[f.name],
			Tags:        tags,
			Kind:        mediatypes.KindOf(f.name),
			ModTime:     f.modTime,
		}

		if q.Search != "" && !matchesSearch(item, q.Search) {
			continue
		}

		if item.Kind == mediatypes.KindVideo {
			item.Thumb = path.Join("thumbnails", media.Stem(f.name)+".jpg")
		} else {
			if dims, err := media.ProbeDimensions(filepath.Join(uploadDir, f.name)); err == nil {
				item.Width = dims.Width
				item.Height = dims.Height
			}
		}

		listing.Items = append(listing.Items, item)
	}

	return listing, nil
}

// matchesSearch reports whether the query occurs, case-insensitively,
// in the filename, description, album, or any tag. Substring match, not
// tokenized.
func matchesSearch(item Item, query string) bool {
	query = strings.ToLower(query)
	if strings.Contains(strings.ToLower(item.Filename), query) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Description), query) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Album), query) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func containsTagFold(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// vocabulary returns the distinct stored tags (case-sensitive union)
// sorted case-insensitively.
func vocabulary(tags map[string][]string) []string {
	seen := make(map[string]bool)
	var all []string
	for _, list := range tags {
		for _, t := range list {
			if !seen[t] {
				seen[t] = true
				all = append(all, t)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool {
		li, lj := strings.ToLower(all[i]), strings.ToLower(all[j])
		if li == lj {
			return all[i] < all[j]
		}
		return li < lj
	})
	return all
}
