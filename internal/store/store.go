package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/JayRKay91/photo-share-app-v3/internal/logging"
)

// Document filenames under the data directory. Each one is a single
// JSON object keyed by stored filename.
const (
	descriptionsFile = "descriptions.json"
	albumsFile       = "albums.json"
	commentsFile     = "comments.json"
	tagsFile         = "tags.json"
)

// Store owns the four metadata documents and serializes every mutation
// behind one mutex, so concurrent requests cannot lose each other's
// writes. Saves are whole-document overwrites; there is no partial or
// append mode.
type Store struct {
	dir string

	mu           sync.RWMutex
	descriptions map[string]string
	albums       map[string]string
	comments     map[string][]string
	tags         map[string][]string
}

// Entry holds the batch-upload metadata for one stored file.
type Entry struct {
	Name  string
	Album string
}

// Snapshot is a read-only copy of all four documents taken under the
// store lock. Gallery queries work from snapshots so they never observe
// a half-applied mutation.
type Snapshot struct {
	Descriptions map[string]string
	Albums       map[string]string
	Comments     map[string][]string
	Tags         map[string][]string
}

// Open loads the four metadata documents from dir, creating the
// directory if needed. A missing document loads as an empty mapping; a
// corrupt document is logged and also loads as empty, so a later save
// overwrites the corruption.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{
		dir:          dir,
		descriptions: make(map[string]string),
		albums:       make(map[string]string),
		comments:     make(map[string][]string),
		tags:         make(map[string][]string),
	}

	loadDocument(filepath.Join(dir, descriptionsFile), &s.descriptions)
	loadDocument(filepath.Join(dir, albumsFile), &s.albums)
	loadDocument(filepath.Join(dir, commentsFile), &s.comments)
	loadDocument(filepath.Join(dir, tagsFile), &s.tags)

	return s, nil
}

// loadDocument reads one JSON document into v. Absent and corrupt
// documents both leave v as the prior (empty) mapping.
func loadDocument(path string, v interface{}) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		logging.Warn("store: read %s: %v", path, err)
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		logging.Warn("store: corrupt document %s, treating as empty: %v", path, err)
	}
}

// saveLocked persists one document. Callers hold the write lock.
func (s *Store) saveLocked(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Snapshot returns a deep copy of all four documents.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Descriptions: make(map[string]string, len(s.descriptions)),
		Albums:       make(map[string]string, len(s.albums)),
		Comments:     make(map[string][]string, len(s.comments)),
		Tags:         make(map[string][]string, len(s.tags)),
	}
	for k, v := range s.descriptions {
		snap.Descriptions[k] = v
	}
	for k, v := range s.albums {
		snap.Albums[k] = v
	}
	for k, v := range s.comments {
		snap.Comments[k] = append([]string(nil), v...)
	}
	for k, v := range s.tags {
		snap.Tags[k] = append([]string(nil), v...)
	}
	return snap
}

// Description returns the stored description for a file, empty if none.
func (s *Store) Description(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.descriptions[name]
}

// SetDescription replaces the description for a file.
func (s *Store) SetDescription(name, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptions[name] = text
	return s.saveLocked(descriptionsFile, s.descriptions)
}

// Album returns the stored album label for a file, empty if none.
func (s *Store) Album(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.albums[name]
}

// Comments returns a copy of the comment sequence for a file.
func (s *Store) Comments(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.comments[name]...)
}

// AddComment appends a comment to a file's sequence. Comments are
// append-only; there is no edit or delete.
func (s *Store) AddComment(name, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[name] = append(s.comments[name], text)
	return s.saveLocked(commentsFile, s.comments)
}

// Tags returns a copy of the tag list for a file, insertion order.
func (s *Store) Tags(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.tags[name]...)
}

// AddTag adds a tag to a file, preserving the caller's casing. Returns
// false without writing when the file already carries the tag under
// case-insensitive comparison.
func (s *Store) AddTag(name, tag string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if containsFold(s.tags[name], tag) {
		return false, nil
	}
	s.tags[name] = append(s.tags[name], tag)
	return true, s.saveLocked(tagsFile, s.tags)
}

// RemoveTag removes every case-insensitive match of tag from a file.
func (s *Store) RemoveTag(name, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.tags[name]
	if !ok {
		return nil
	}
	s.tags[name] = removeFold(list, tag)
	return s.saveLocked(tagsFile, s.tags)
}

// RenameTag renames oldTag to newTag on a single file. Matching is
// case-insensitive; newTag keeps the caller's casing. Returns false
// without writing when the file had no matching tag.
func (s *Store) RenameTag(name, oldTag, newTag string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.tags[name]
	if !ok {
		return false, nil
	}
	renamed, changed := renameFold(list, oldTag, newTag)
	if !changed {
		return false, nil
	}
	s.tags[name] = renamed
	return true, s.saveLocked(tagsFile, s.tags)
}

// RenameTagAll renames oldTag to newTag across every file. Returns the
// number of files updated; zero means no matches and nothing written.
func (s *Store) RenameTagAll(oldTag, newTag string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for name, list := range s.tags {
		renamed, changed := renameFold(list, oldTag, newTag)
		if changed {
			s.tags[name] = renamed
			updated++
		}
	}
	if updated == 0 {
		return 0, nil
	}
	return updated, s.saveLocked(tagsFile, s.tags)
}

// Remove deletes a file's entries from all four documents as a unit and
// persists each document. Removing an absent name is a no-op.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.descriptions, name)
	delete(s.albums, name)
	delete(s.comments, name)
	delete(s.tags, name)
	return s.saveAllLocked()
}

// AddBatch records upload defaults (empty description, empty comments,
// empty tags, album only when provided) for every entry and persists
// all four documents exactly once, matching the batch-level save of the
// upload pipeline.
func (s *Store) AddBatch(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.descriptions[e.Name] = ""
		s.comments[e.Name] = []string{}
		s.tags[e.Name] = []string{}
		if e.Album != "" {
			s.albums[e.Name] = e.Album
		}
	}
	return s.saveAllLocked()
}

// Adopt records upload defaults for orphan files found on disk without
// metadata. Files that already have any entry are left alone. Returns
// the number of files adopted.
func (s *Store) Adopt(names []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	adopted := 0
	for _, name := range names {
		if s.knownLocked(name) {
			continue
		}
		s.descriptions[name] = ""
		s.comments[name] = []string{}
		s.tags[name] = []string{}
		adopted++
	}
	if adopted == 0 {
		return 0, nil
	}
	return adopted, s.saveAllLocked()
}

// Prune removes entries from all four documents whose key is not in
// present. Returns the number of dangling keys removed.
func (s *Store) Prune(present map[string]bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for _, name := range s.keysLocked() {
		if present[name] {
			continue
		}
		delete(s.descriptions, name)
		delete(s.albums, name)
		delete(s.comments, name)
		delete(s.tags, name)
		pruned++
	}
	if pruned == 0 {
		return 0, nil
	}
	return pruned, s.saveAllLocked()
}

// Keys returns the union of filenames present in any document.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keysLocked()
}

func (s *Store) keysLocked() []string {
	seen := make(map[string]bool)
	for k := range s.descriptions {
		seen[k] = true
	}
	for k := range s.albums {
		seen[k] = true
	}
	for k := range s.comments {
		seen[k] = true
	}
	for k := range s.tags {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	return keys
}

func (s *Store) knownLocked(name string) bool {
	if _, ok := s.descriptions[name]; ok {
		return true
	}
	if _, ok := s.albums[name]; ok {
		return true
	}
	if _, ok := s.comments[name]; ok {
		return true
	}
	_, ok := s.tags[name]
	return ok
}

// saveAllLocked persists all four documents, reporting the first error
// after attempting every document.
func (s *Store) saveAllLocked() error {
	var firstErr error
	saves := []struct {
		file string
		v    interface{}
	}{
		{descriptionsFile, s.descriptions},
		{albumsFile, s.albums},
		{commentsFile, s.comments},
		{tagsFile, s.tags},
	}
	for _, doc := range saves {
		if err := s.saveLocked(doc.file, doc.v); err != nil {
			logging.Error("store: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// containsFold reports whether list holds tag under case-insensitive
// comparison.
func containsFold(list []string, tag string) bool {
	for _, t := range list {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// removeFold returns list without any case-insensitive matches of tag.
func removeFold(list []string, tag string) []string {
	out := list[:0]
	for _, t := range list {
		if !strings.EqualFold(t, tag) {
			out = append(out, t)
		}
	}
	return out
}

// renameFold replaces case-insensitive matches of oldTag with newTag,
// then drops case-insensitive duplicates keeping the first occurrence,
// so a rename cannot violate the no-duplicate invariant.
func renameFold(list []string, oldTag, newTag string) ([]string, bool) {
	changed := false
	out := make([]string, 0, len(list))
	for _, t := range list {
		if strings.EqualFold(t, oldTag) {
			t = newTag
			changed = true
		}
		if !containsFold(out, t) {
			out = append(out, t)
		}
	}
	return out, changed
}
