package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JayRKay91/photo-share-app-v3/internal/reconcile"
	"github.com/JayRKay91/photo-share-app-v3/internal/startup"
	"github.com/JayRKay91/photo-share-app-v3/internal/store"
	"github.com/JayRKay91/photo-share-app-v3/internal/upload"

	"github.com/gorilla/mux"
)

type testEnv struct {
	handlers  *Handlers
	store     *store.Store
	router    *mux.Router
	uploadDir string
	thumbDir  string
}

// newTestEnv wires a full handler set over temp directories with stub
// codec functions, mirroring the production route table.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dataDir := t.TempDir()
	uploadDir := filepath.Join(dataDir, "uploads")
	thumbDir := filepath.Join(dataDir, "thumbnails")

	st, err := store.Open(dataDir)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}

	normalize := func(data []byte) ([]byte, error) {
		return append([]byte("jpeg:"), data...), nil
	}
	thumbnail := func(videoPath, thumbPath string) error {
		return os.WriteFile(thumbPath, []byte("thumb"), 0o644)
	}

	pipe, err := upload.New(st, uploadDir, thumbDir, normalize, thumbnail)
	if err != nil {
		t.Fatalf("upload.New: %v", err)
	}

	rec := reconcile.New(st, uploadDir, thumbDir, 0, thumbnail)

	cfg := &startup.Config{
		UploadDir:     uploadDir,
		ThumbDir:      thumbDir,
		MaxUploadMB:   200,
		SessionSecret: "test-secret",
	}

	h, err := New(st, pipe, rec, cfg)
	if err != nil {
		t.Fatalf("handlers.New: %v", err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/", h.Gallery).Methods(http.MethodGet)
	r.HandleFunc("/upload", h.UploadForm).Methods(http.MethodGet)
	r.HandleFunc("/upload", h.Upload).Methods(http.MethodPost)
	r.HandleFunc("/add_tag/{filename}", h.AddTag).Methods(http.MethodPost)
	r.HandleFunc("/remove_tag/{filename}/{tag}", h.RemoveTag).Methods(http.MethodPost)
	r.HandleFunc("/rename_tag_single", h.RenameTagSingle).Methods(http.MethodPost)
	r.HandleFunc("/rename_tag_global", h.RenameTagGlobal).Methods(http.MethodPost)
	r.HandleFunc("/tag/{tagname}", h.FilterByTag).Methods(http.MethodGet)
	r.HandleFunc("/delete/{filename}", h.Delete).Methods(http.MethodPost)
	r.HandleFunc("/download/{filename}", h.Download).Methods(http.MethodGet)
	r.HandleFunc("/update_description/{filename}", h.UpdateDescription).Methods(http.MethodPost)
	r.HandleFunc("/add_comment/{filename}", h.AddComment).Methods(http.MethodPost)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	return &testEnv{handlers: h, store: st, router: r, uploadDir: uploadDir, thumbDir: thumbDir}
}

// addFile places a stored file on disk and registers its metadata.
func (e *testEnv) addFile(t *testing.T, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(e.uploadDir, name), []byte("media"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := e.store.AddBatch([]store.Entry{{Name: name}}); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// followRedirect replays the Set-Cookie headers of a redirect response
// against the gallery page, returning the rendered HTML with any flash
// messages.
func (e *testEnv) followRedirect(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected redirect, got %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, rec.Header().Get("Location"), nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	out := httptest.NewRecorder()
	e.router.ServeHTTP(out, req)
	return out.Body.String()
}

func TestGalleryEmpty(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.get(t, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML, got %s", ct)
	}
}

func TestGalleryListsStoredFile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "abc123.jpg")

	body := env.get(t, "/").Body.String()
	if !strings.Contains(body, "abc123.jpg") {
		t.Error("Stored file missing from gallery page")
	}
}

func TestUploadBatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("album", "Trip"); err != nil {
		t.Fatalf("write album field: %v", err)
	}
	for _, name := range []string{"one.jpg", "two.PNG"} {
		part, err := mw.CreateFormFile("photos", name)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := io.WriteString(part, "bytes-of-"+name); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	body := env.followRedirect(t, rec)
	if !strings.Contains(body, "Upload successful.") {
		t.Error("Missing success flash after upload")
	}

	entries, err := os.ReadDir(env.uploadDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 stored files, got %d", len(entries))
	}
	for _, e := range entries {
		if got := env.store.Album(e.Name()); got != "Trip" {
			t.Errorf("Expected album Trip for %s, got %q", e.Name(), got)
		}
	}
}

func TestUploadHEICConversionFlash(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photos", "IMG_0042.HEIC")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	io.WriteString(part, "heic-bytes")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	body := env.followRedirect(t, rec)
	if !strings.Contains(body, "HEIC image converted and uploaded.") {
		t.Error("Missing conversion flash")
	}

	entries, _ := os.ReadDir(env.uploadDir)
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".jpg") {
		t.Errorf("Expected one converted .jpg on disk, got %v", entries)
	}
}

func TestAddTagAndDuplicate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "a.jpg")

	rec := env.postForm(t, "/add_tag/a.jpg", url.Values{"tag": {"Beach"}})
	body := env.followRedirect(t, rec)
	if !strings.Contains(body, "added") {
		t.Errorf("Missing added flash: %q", body)
	}

	rec = env.postForm(t, "/add_tag/a.jpg", url.Values{"tag": {"beach"}})
	body = env.followRedirect(t, rec)
	if !strings.Contains(body, "already exists") {
		t.Errorf("Missing duplicate flash: %q", body)
	}

	tags := env.store.Tags("a.jpg")
	if len(tags) != 1 || tags[0] != "Beach" {
		t.Errorf("Expected single tag with original casing, got %v", tags)
	}
}

func TestAddTagEmptyRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "a.jpg")

	rec := env.postForm(t, "/add_tag/a.jpg", url.Values{"tag": {"   "}})
	body := env.followRedirect(t, rec)
	if !strings.Contains(body, "Empty tag not added.") {
		t.Error("Missing empty-tag flash")
	}
	if got := env.store.Tags("a.jpg"); len(got) != 0 {
		t.Errorf("Whitespace tag written: %v", got)
	}
}

func TestAddTagUnknownFile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.postForm(t, "/add_tag/ghost.jpg", url.Values{"tag": {"beach"}})
	body := env.followRedirect(t, rec)
	if !strings.Contains(body, "not found") {
		t.Error("Missing not-found flash for unknown file")
	}
	if got := len(env.store.Keys()); got != 0 {
		t.Errorf("Metadata created for unknown file: %d keys", got)
	}
}

func TestRemoveTag(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "a.jpg")
	if _, err := env.store.AddTag("a.jpg", "Beach"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}

	rec := env.postForm(t, "/remove_tag/a.jpg/BEACH", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected redirect, got %d", rec.Code)
	}
	if got := env.store.Tags("a.jpg"); len(got) != 0 {
		t.Errorf("Tag not removed: %v", got)
	}
}

func TestRenameTagGlobalNoMatches(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "a.jpg")
	if _, err := env.store.AddTag("a.jpg", "sun"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}

	rec := env.postForm(t, "/rename_tag_global", url.Values{
		"old_tag": {"beach"},
		"new_tag": {"shore"},
	})
	body := env.followRedirect(t, rec)
	if !strings.Contains(body, "No matches found for &#39;beach&#39;.") && !strings.Contains(body, "No matches found for 'beach'.") {
		t.Errorf("Missing no-match flash: %q", body)
	}
	if got := env.store.Tags("a.jpg"); len(got) != 1 || got[0] != "sun" {
		t.Errorf("Tags changed on no-match rename: %v", got)
	}
}

func TestRenameTagSingleMissingFields(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.postForm(t, "/rename_tag_single", url.Values{"old_tag": {"a"}})
	body := env.followRedirect(t, rec)
	if !strings.Contains(body, "Missing tag rename data.") {
		t.Error("Missing validation flash")
	}
}

func TestDeleteRemovesEverything(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "clip.mp4")
	if err := os.WriteFile(filepath.Join(env.thumbDir, "clip.jpg"), []byte("t"), 0o644); err != nil {
		t.Fatalf("write thumb: %v", err)
	}
	if _, err := env.store.AddTag("clip.mp4", "beach"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}

	rec := env.postForm(t, "/delete/clip.mp4", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected redirect, got %d", rec.Code)
	}

	if _, err := os.Stat(filepath.Join(env.uploadDir, "clip.mp4")); !os.IsNotExist(err) {
		t.Error("Media file still on disk")
	}
	if _, err := os.Stat(filepath.Join(env.thumbDir, "clip.jpg")); !os.IsNotExist(err) {
		t.Error("Thumbnail still on disk")
	}
	if got := len(env.store.Keys()); got != 0 {
		t.Errorf("Metadata not cleared: %d keys", got)
	}
}

func TestDeleteAbsentFileIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "keep.jpg")

	rec := env.postForm(t, "/delete/ghost.jpg", nil)
	body := env.followRedirect(t, rec)
	if !strings.Contains(body, "not found") {
		t.Error("Missing not-found flash")
	}

	// Unrelated metadata untouched.
	if got := env.store.Keys(); len(got) != 1 || got[0] != "keep.jpg" {
		t.Errorf("Metadata disturbed by absent delete: %v", got)
	}
}

func TestDeletePathTraversalRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "a.jpg") // forces the metadata documents onto disk

	outside := filepath.Join(filepath.Dir(env.uploadDir), "descriptions.json")
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("fixture missing: %v", err)
	}

	rec := env.postForm(t, "/delete/..%2Fdescriptions.json", nil)
	if rec.Code == http.StatusSeeOther {
		env.followRedirect(t, rec)
	}

	if _, err := os.Stat(outside); err != nil {
		t.Error("Path traversal deleted a file outside the upload dir")
	}
}

func TestDownload(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "a.jpg")

	rec := env.get(t, "/download/a.jpg")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `attachment; filename="a.jpg"`) {
		t.Errorf("Unexpected disposition: %s", cd)
	}
	if rec.Body.String() != "media" {
		t.Errorf("Body mismatch: %q", rec.Body.String())
	}
}

func TestDownloadMissing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if rec := env.get(t, "/download/ghost.jpg"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestUpdateDescription(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "a.jpg")

	rec := env.postForm(t, "/update_description/a.jpg", url.Values{"description": {"sunset at the pier"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected redirect, got %d", rec.Code)
	}
	if got := env.store.Description("a.jpg"); got != "sunset at the pier" {
		t.Errorf("Description not saved: %q", got)
	}

	// Replacing with empty clears it.
	env.postForm(t, "/update_description/a.jpg", url.Values{"description": {""}})
	if got := env.store.Description("a.jpg"); got != "" {
		t.Errorf("Description not cleared: %q", got)
	}
}

func TestAddComment(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "a.jpg")

	env.postForm(t, "/add_comment/a.jpg", url.Values{"comment": {"first"}})
	env.postForm(t, "/add_comment/a.jpg", url.Values{"comment": {"second"}})

	got := env.store.Comments("a.jpg")
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("Expected ordered comments, got %v", got)
	}
}

func TestAddCommentEmptyRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "a.jpg")

	rec := env.postForm(t, "/add_comment/a.jpg", url.Values{"comment": {"  "}})
	body := env.followRedirect(t, rec)
	if !strings.Contains(body, "Empty comment not added.") {
		t.Error("Missing empty-comment flash")
	}
	if got := env.store.Comments("a.jpg"); len(got) != 0 {
		t.Errorf("Whitespace comment written: %v", got)
	}
}

func TestFilterByTagRedirect(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.get(t, "/tag/beach%20day")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/?tag=beach+day" && loc != "/?tag=beach%20day" {
		t.Errorf("Unexpected redirect target: %s", loc)
	}
}

func TestGalleryTagFilter(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "tagged.jpg")
	env.addFile(t, "untagged.jpg")
	if _, err := env.store.AddTag("tagged.jpg", "beach"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}

	body := env.get(t, "/?tag=BEACH").Body.String()
	if !strings.Contains(body, "tagged.jpg") {
		t.Error("Tagged file missing from filtered page")
	}
	if strings.Contains(body, "untagged.jpg") {
		t.Error("Untagged file leaked into filtered page")
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addFile(t, "a.jpg")

	rec := env.get(t, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"status":"healthy"`) {
		t.Errorf("Expected healthy status: %s", body)
	}
	if !strings.Contains(body, `"knownFiles":1`) {
		t.Errorf("Expected known file count: %s", body)
	}

	for _, path := range []string{"/livez", "/readyz", "/version"} {
		if rec := env.get(t, path); rec.Code != http.StatusOK {
			t.Errorf("%s returned %d", path, rec.Code)
		}
	}
}

func TestSafeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"a.jpg", true},
		{"0123abcd.mp4", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../escape.jpg", false},
		{"a/b.jpg", false},
		{`a\b.jpg`, false},
	}

	for _, tt := range tests {
		if got := safeName(tt.name); got != tt.want {
			t.Errorf("safeName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
